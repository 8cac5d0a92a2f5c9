package util

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseSize parses a size string like "2G", "500M", "1.5G" to bytes
func ParseSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(strings.ToUpper(sizeStr))
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	// Extract numeric part and unit
	var numStr string
	var unit string
	for i, ch := range sizeStr {
		if ch >= '0' && ch <= '9' || ch == '.' {
			numStr += string(ch)
		} else {
			unit = sizeStr[i:]
			break
		}
	}

	if numStr == "" {
		return 0, fmt.Errorf("no numeric value found")
	}

	value, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %w", err)
	}

	var multiplier int64
	switch unit {
	case "B", "":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	case "T", "TB":
		multiplier = 1024 * 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown unit: %s (use B, K/KB, M/MB, G/GB, T/TB)", unit)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize renders a byte count the way progress cards show it: "512 B",
// "3.41 MB", "1.95 GB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/(1024*1024*1024))
	}
}

// SanitizeFilename cleans a daemon-reported file name for display: strips any
// directory part, undoes URL encoding ("my%20video.mp4"), and collapses a
// duplicated extension ("clip.mp4.mp4") that some resolver endpoints produce.
func SanitizeFilename(name string) string {
	if name == "" {
		return "file"
	}
	name = filepath.Base(name)
	if unescaped, err := url.QueryUnescape(name); err == nil && unescaped != "" {
		name = unescaped
	}
	name = filepath.Base(name) // unescaping may reintroduce separators

	ext := filepath.Ext(name)
	if ext != "" {
		base := strings.TrimSuffix(name, ext)
		for strings.EqualFold(filepath.Ext(base), ext) {
			base = strings.TrimSuffix(base, filepath.Ext(base))
		}
		name = base + ext
	}
	if name == "" || name == ext {
		return "file"
	}
	return name
}
