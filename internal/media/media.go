// Package media models the downloaded file between fetch and delivery.
package media

import (
	"os"
	"path/filepath"
	"strings"

	"terabox-relay-bot/internal/logger"
	"terabox-relay-bot/internal/util"
)

type Kind string

const (
	KindVideo    Kind = "video"
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

var videoExts = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true,
	".flv": true, ".ts": true,
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".bmp": true,
}

// Asset is a fetched local file awaiting delivery. Deleted (best-effort)
// after delivery or on failure.
type Asset struct {
	Path string
	Name string // sanitized display name
	Size int64
	Kind Kind
}

// NewAsset stats the file and derives display name and kind.
func NewAsset(path string) (*Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Asset{
		Path: path,
		Name: util.SanitizeFilename(filepath.Base(path)),
		Size: info.Size(),
		Kind: KindOf(path),
	}, nil
}

// KindOf classifies a file by extension.
func KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExts[ext]:
		return KindVideo
	case imageExts[ext]:
		return KindImage
	default:
		return KindDocument
	}
}

// Remove deletes the local file. Idempotent: a missing file is not an error.
func (a *Asset) Remove() {
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		logger.Debug.Printf("remove %s: %v", a.Path, err)
	}
}

// Segment is one bounded-size slice of an asset during delivery.
type Segment struct {
	Path  string
	Index int // 1-based
	Total int
}

func (s *Segment) Remove() {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		logger.Debug.Printf("remove %s: %v", s.Path, err)
	}
}
