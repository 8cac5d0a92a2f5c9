// Package linkcheck decides whether an inbound message carries a share link
// the bot can work with.
package linkcheck

import (
	"net/url"
	"strings"
)

// Result classifies a message's link content.
type Result int

const (
	// NoURL means no URL-shaped token was found in the text.
	NoURL Result = iota
	// UnsupportedHost means a URL was found but its host is not on the
	// allow-list.
	UnsupportedHost
	// Supported means the URL's host suffix-matches an allow-listed domain.
	Supported
)

// DefaultDomains lists the share-hosting domains the public resolver
// understands.
var DefaultDomains = []string{
	"terabox.com", "nephobox.com", "4funbox.com", "mirrobox.com",
	"momerybox.com", "teraboxapp.com", "1024tera.com",
	"terabox.app", "gibibox.com", "goaibox.com", "terasharelink.com",
	"teraboxlink.com", "terafileshare.com",
}

type Classifier struct {
	domains []string
}

func NewClassifier(domains []string) *Classifier {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	return &Classifier{domains: domains}
}

// Domains returns the configured allow-list, for user-facing help text.
func (c *Classifier) Domains() []string {
	return c.domains
}

// Classify scans the message text for the first URL-shaped token and checks
// its host against the allow-list. The matched URL is returned for Supported
// and UnsupportedHost results.
func (c *Classifier) Classify(text string) (Result, string) {
	var firstURL string
	for _, word := range strings.Fields(text) {
		u, ok := parseURL(word)
		if !ok {
			continue
		}
		if firstURL == "" {
			firstURL = word
		}
		if c.hostAllowed(u.Hostname()) {
			return Supported, word
		}
	}
	if firstURL == "" {
		return NoURL, ""
	}
	return UnsupportedHost, firstURL
}

func (c *Classifier) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, domain := range c.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func parseURL(word string) (*url.URL, bool) {
	if !strings.HasPrefix(word, "http://") && !strings.HasPrefix(word, "https://") {
		return nil, false
	}
	u, err := url.Parse(word)
	if err != nil || u.Hostname() == "" {
		return nil, false
	}
	return u, true
}
