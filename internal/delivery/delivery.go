// Package delivery moves a fetched asset into Telegram: split when oversized,
// upload each unit to the relay chat, copy it to the requester, clean up.
package delivery

import (
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"

	"terabox-relay-bot/internal/logger"
	"terabox-relay-bot/internal/media"
	"terabox-relay-bot/internal/status"
	"terabox-relay-bot/internal/telegram"
	"terabox-relay-bot/internal/thumbnail"

	tele "gopkg.in/telebot.v4"
)

// Thumbnailer produces an upload cover for a video file. Split out for tests.
type Thumbnailer func(videoPath string) (string, error)

// Progress receives human-readable phase updates. Satisfied by status.Editor.
type Progress interface {
	Update(text string)
}

// Copier forwards a relay message to the requester without re-uploading.
type Copier func(requester int64, receipt telegram.Receipt) error

// Orchestrator carries everything a delivery needs. The capacity uploader is
// the elevated user identity when one is configured, otherwise the bot.
type Orchestrator struct {
	relayChat int64
	capacity  telegram.Uploader
	direct    telegram.Uploader
	copy      Copier
	splitter  *media.Splitter
	threshold int64
	thumb     Thumbnailer
}

func New(bot *tele.Bot, relayChat int64, capacity telegram.Uploader, threshold int64) *Orchestrator {
	return &Orchestrator{
		relayChat: relayChat,
		capacity:  capacity,
		direct:    telegram.NewBotUploader(bot),
		copy:      BotCopier(bot),
		splitter:  media.NewSplitter(),
		threshold: threshold,
		thumb:     thumbnail.Generate,
	}
}

// BotCopier adapts telebot's message copy into a Copier.
func BotCopier(bot *tele.Bot) Copier {
	return func(requester int64, receipt telegram.Receipt) error {
		_, err := bot.Copy(&tele.Chat{ID: requester}, receipt.Stored())
		return err
	}
}

// unit is one file to upload: the whole asset or one segment of it.
type unit struct {
	path  string
	name  string
	size  int64
	index int
	total int
}

func (u unit) caption() string {
	if u.total > 1 {
		return fmt.Sprintf("%s\nPart %d/%d", html.EscapeString(u.name), u.index, u.total)
	}
	return html.EscapeString(u.name)
}

// Deliver uploads the asset to the requester, splitting first when it exceeds
// the threshold. Every local file involved is removed before return. A failed
// unit does not stop the remaining ones, but any failure surfaces on the
// status message and fails the delivery as a whole.
func (o *Orchestrator) Deliver(asset *media.Asset, requester int64, editor Progress, who status.Requester) error {
	defer asset.Remove()

	units := []unit{{path: asset.Path, name: asset.Name, size: asset.Size, index: 1, total: 1}}

	if plan := o.splitter.Plan(asset, o.threshold); plan != nil {
		editor.Update(status.SplittingCard(asset.Name, asset.Size, plan.Parts))
		segments, err := o.splitter.Split(asset, plan)
		if err != nil {
			// deliver whole and let the oversized upload fail on its own
			logger.Warn.Printf("split failed for %s, delivering unsplit: %v", asset.Name, err)
		} else {
			units = units[:0]
			for _, seg := range segments {
				size := asset.Size / int64(len(segments))
				if info, err := o.statSize(seg.Path); err == nil {
					size = info
				}
				units = append(units, unit{
					path:  seg.Path,
					name:  asset.Name,
					size:  size,
					index: seg.Index,
					total: seg.Total,
				})
			}
		}
	}

	var failed []int
	for _, u := range units {
		editor.Update(status.UploadCard(u.name, u.index, u.total, u.size, who))
		if err := o.deliverUnit(u, requester); err != nil {
			logger.Error.Printf("failed to deliver %s part %d/%d: %v", u.name, u.index, u.total, err)
			editor.Update(status.UploadFailedCard(u.name, u.index, u.total, who))
			failed = append(failed, u.index)
		}
	}

	if len(failed) == 0 {
		return nil
	}
	if len(units) == 1 {
		return fmt.Errorf("%s could not be delivered", asset.Name)
	}
	return fmt.Errorf("parts %s of %s were not delivered", joinInts(failed), asset.Name)
}

func joinInts(ns []int) string {
	strs := make([]string, len(ns))
	for i, n := range ns {
		strs[i] = strconv.Itoa(n)
	}
	return strings.Join(strs, ", ")
}

// deliverUnit uploads one file to the relay chat and copies it to the
// requester. A relay failure falls back to a direct upload; a copy failure
// falls back to re-uploading directly. The local file (and its thumbnail) is
// removed whatever happens.
func (o *Orchestrator) deliverUnit(u unit, requester int64) error {
	thumbPath := ""
	if media.KindOf(u.path) == media.KindVideo {
		if t, err := o.thumb(u.path); err != nil {
			logger.Debug.Printf("thumbnail generation failed for %s: %v", u.name, err)
		} else {
			thumbPath = t
		}
	}
	defer o.cleanup(u.path, thumbPath)

	receipt, err := o.capacity.Upload(o.relayChat, u.path, u.caption(), thumbPath)
	if err != nil {
		logger.Warn.Printf("relay upload failed for %s, sending directly: %v", u.name, err)
		_, err = o.direct.Upload(requester, u.path, u.caption(), thumbPath)
		return err
	}

	if err := o.copy(requester, receipt); err != nil {
		logger.Warn.Printf("copy to requester failed for %s, re-uploading directly: %v", u.name, err)
		_, err = o.direct.Upload(requester, u.path, u.caption(), thumbPath)
		return err
	}
	return nil
}

func (o *Orchestrator) cleanup(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		seg := media.Segment{Path: p}
		seg.Remove()
	}
}

func (o *Orchestrator) statSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
