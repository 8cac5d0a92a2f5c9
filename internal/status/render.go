package status

import (
	"fmt"
	"html"
	"strings"
	"time"

	"terabox-relay-bot/internal/fetch"
	"terabox-relay-bot/internal/util"
)

// Requester identifies who asked for the download, for the card footer.
type Requester struct {
	ID   int64
	Name string
}

func (r Requester) mention() string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, r.ID, html.EscapeString(r.Name))
}

// DownloadCard renders one poll tick as the progress message body.
func DownloadCard(s fetch.Snapshot, who Requester) string {
	var b strings.Builder
	fmt.Fprintf(&b, "┏ File: %s\n", html.EscapeString(util.SanitizeFilename(s.Name)))
	fmt.Fprintf(&b, "┠ [%s] %.2f%%\n", bar(s.Percent), s.Percent)
	fmt.Fprintf(&b, "┠ Processed: %s of %s\n", util.FormatSize(s.Completed), util.FormatSize(s.Total))
	fmt.Fprintf(&b, "┠ Status: 📥 Downloading\n")
	fmt.Fprintf(&b, "┠ Speed: %s/s\n", util.FormatSize(s.Speed))
	fmt.Fprintf(&b, "┠ ETA: %s | Elapsed: %s\n", eta(s), shortDuration(s.Elapsed))
	fmt.Fprintf(&b, "┖ User: %s | ID: %d", who.mention(), who.ID)
	return b.String()
}

// UploadCard renders the delivery phase for one unit.
func UploadCard(name string, index, total int, size int64, who Requester) string {
	var b strings.Builder
	fmt.Fprintf(&b, "┏ File: %s\n", html.EscapeString(name))
	if total > 1 {
		fmt.Fprintf(&b, "┠ Part: %d/%d\n", index, total)
	}
	fmt.Fprintf(&b, "┠ Size: %s\n", util.FormatSize(size))
	fmt.Fprintf(&b, "┠ Status: 📤 Uploading to Telegram\n")
	fmt.Fprintf(&b, "┖ User: %s | ID: %d", who.mention(), who.ID)
	return b.String()
}

// UploadFailedCard marks one unit that could not be delivered on any path.
func UploadFailedCard(name string, index, total int, who Requester) string {
	var b strings.Builder
	fmt.Fprintf(&b, "┏ File: %s\n", html.EscapeString(name))
	if total > 1 {
		fmt.Fprintf(&b, "┠ Part: %d/%d\n", index, total)
	}
	fmt.Fprintf(&b, "┠ Status: ⚠️ Upload failed\n")
	fmt.Fprintf(&b, "┖ User: %s | ID: %d", who.mention(), who.ID)
	return b.String()
}

// SplittingCard covers the cut phase of an oversized video.
func SplittingCard(name string, size int64, parts int) string {
	return fmt.Sprintf("✂️ Splitting %s (%s) into %d parts…", html.EscapeString(name), util.FormatSize(size), parts)
}

func bar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 10)
	return strings.Repeat("★", filled) + strings.Repeat("☆", 10-filled)
}

func eta(s fetch.Snapshot) string {
	if s.Speed <= 0 || s.Total <= 0 || s.Completed >= s.Total {
		return "-"
	}
	remaining := time.Duration((s.Total-s.Completed)/s.Speed) * time.Second
	return shortDuration(remaining)
}

func shortDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
