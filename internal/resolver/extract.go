package resolver

import (
	"net/url"
	"path"
	"strings"
)

// Field names the API has used for the direct link, in the order seen across
// its revisions.
var knownFields = []string{"download", "dlink", "direct_link", "link", "url"}

// Keys that usually hold an array of per-file results.
var knownListFields = []string{"response", "results", "list", "files"}

var mediaExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".webm": true, ".avi": true, ".mov": true,
	".flv": true, ".ts": true, ".m3u8": true,
	".mp3": true, ".m4a": true, ".aac": true, ".flac": true, ".ogg": true, ".wav": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".zip": true, ".rar": true, ".7z": true, ".pdf": true, ".apk": true,
}

// ExtractMediaURL pulls the best direct-media-URL candidate out of an
// arbitrary decoded JSON document. Known field names win over the recursive
// scan; among scanned candidates, encrypted transport beats plain, then
// longer URLs beat shorter ones. Returns "" when nothing qualifies.
func ExtractMediaURL(doc any) string {
	if direct := fromKnownFields(doc); direct != "" {
		return direct
	}

	var candidates []string
	scanStrings(doc, func(s string) {
		if looksLikeMediaURL(s) {
			candidates = append(candidates, s)
		}
	})
	return pickBest(candidates)
}

// fromKnownFields checks explicit field names: first on the document root,
// then on the elements of any known results list.
func fromKnownFields(doc any) string {
	obj, ok := doc.(map[string]any)
	if !ok {
		return ""
	}

	if s := stringField(obj, knownFields); s != "" {
		return s
	}

	for _, listKey := range knownListFields {
		list, ok := obj[listKey].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if s := stringField(entry, knownFields); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringField(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && isHTTPURL(s) {
			return s
		}
	}
	return ""
}

func scanStrings(v any, visit func(string)) {
	switch t := v.(type) {
	case string:
		visit(t)
	case []any:
		for _, item := range t {
			scanStrings(item, visit)
		}
	case map[string]any:
		for _, item := range t {
			scanStrings(item, visit)
		}
	}
}

// looksLikeMediaURL is the best-effort heuristic for URL-typed strings found
// anywhere in the document: a known file extension in the path, or an "hls"
// or "download" path marker.
func looksLikeMediaURL(s string) bool {
	if !isHTTPURL(s) {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	if mediaExtensions[path.Ext(p)] {
		return true
	}
	return strings.Contains(p, "/hls/") || strings.Contains(p, "download")
}

func pickBest(candidates []string) string {
	best := ""
	for _, c := range candidates {
		if better(c, best) {
			best = c
		}
	}
	return best
}

func better(a, b string) bool {
	if b == "" {
		return true
	}
	aTLS := strings.HasPrefix(a, "https://")
	bTLS := strings.HasPrefix(b, "https://")
	if aTLS != bTLS {
		return aTLS
	}
	return len(a) > len(b)
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
