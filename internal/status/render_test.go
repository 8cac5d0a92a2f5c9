package status

import (
	"strings"
	"testing"
	"time"

	"terabox-relay-bot/internal/fetch"
)

func TestBar(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, "☆☆☆☆☆☆☆☆☆☆"},
		{50, "★★★★★☆☆☆☆☆"},
		{100, "★★★★★★★★★★"},
		{37.5, "★★★☆☆☆☆☆☆☆"},
		{-10, "☆☆☆☆☆☆☆☆☆☆"},
		{150, "★★★★★★★★★★"},
	}
	for _, tt := range tests {
		if got := bar(tt.percent); got != tt.want {
			t.Errorf("bar(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestDownloadCard(t *testing.T) {
	snap := fetch.Snapshot{
		Name:      "/downloads/my%20movie.mp4",
		State:     "active",
		Completed: 50 * 1024 * 1024,
		Total:     100 * 1024 * 1024,
		Speed:     1024 * 1024,
		Percent:   50,
		Elapsed:   90 * time.Second,
	}
	who := Requester{ID: 42, Name: "Alice <3"}

	card := DownloadCard(snap, who)

	for _, want := range []string{
		"my movie.mp4",
		"★★★★★☆☆☆☆☆",
		"50.00%",
		"50.00 MB of 100.00 MB",
		"1.00 MB/s",
		"Elapsed: 1m 30s",
		`tg://user?id=42`,
		"Alice &lt;3", // display name must be escaped
	} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
}

func TestDownloadCardETA(t *testing.T) {
	snap := fetch.Snapshot{
		Name:      "f.mp4",
		Completed: 0,
		Total:     600,
		Speed:     10,
	}
	card := DownloadCard(snap, Requester{ID: 1, Name: "u"})
	if !strings.Contains(card, "ETA: 1m 0s") {
		t.Errorf("expected 60s ETA in card:\n%s", card)
	}

	// no speed means no ETA estimate
	snap.Speed = 0
	card = DownloadCard(snap, Requester{ID: 1, Name: "u"})
	if !strings.Contains(card, "ETA: -") {
		t.Errorf("expected placeholder ETA in card:\n%s", card)
	}
}

func TestUploadCardPartNumbering(t *testing.T) {
	who := Requester{ID: 7, Name: "bob"}

	multi := UploadCard("movie.mp4", 2, 3, 1024, who)
	if !strings.Contains(multi, "Part: 2/3") {
		t.Errorf("expected part numbering:\n%s", multi)
	}

	single := UploadCard("movie.mp4", 1, 1, 1024, who)
	if strings.Contains(single, "Part:") {
		t.Errorf("single unit must not show part numbering:\n%s", single)
	}
}

func TestUploadFailedCard(t *testing.T) {
	who := Requester{ID: 7, Name: "bob"}

	card := UploadFailedCard("movie.mp4", 2, 3, who)
	for _, want := range []string{"Upload failed", "Part: 2/3", "movie.mp4"} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}

	single := UploadFailedCard("movie.mp4", 1, 1, who)
	if strings.Contains(single, "Part:") {
		t.Errorf("single unit must not show part numbering:\n%s", single)
	}
}
