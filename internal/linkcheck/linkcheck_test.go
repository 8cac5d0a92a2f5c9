package linkcheck

import "testing"

func TestClassify(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name string
		text string
		want Result
		url  string
	}{
		{
			name: "plain terabox link",
			text: "https://terabox.com/s/1abcDEF",
			want: Supported,
			url:  "https://terabox.com/s/1abcDEF",
		},
		{
			name: "subdomain",
			text: "https://www.4funbox.com/s/xyz",
			want: Supported,
			url:  "https://www.4funbox.com/s/xyz",
		},
		{
			name: "link embedded in chatter",
			text: "please get this https://teraboxapp.com/s/1xyz for me",
			want: Supported,
			url:  "https://teraboxapp.com/s/1xyz",
		},
		{
			name: "host that merely ends with an allowed domain",
			text: "https://notterabox.com/s/1abc",
			want: UnsupportedHost,
			url:  "https://notterabox.com/s/1abc",
		},
		{
			name: "unrelated host",
			text: "https://example.com/file.mp4",
			want: UnsupportedHost,
			url:  "https://example.com/file.mp4",
		},
		{
			name: "no url at all",
			text: "hello there",
			want: NoURL,
		},
		{
			name: "bare domain without scheme is not a url",
			text: "terabox.com/s/1abc",
			want: NoURL,
		},
		{
			name: "unsupported first then supported second",
			text: "https://example.com/x https://terabox.app/s/1q",
			want: Supported,
			url:  "https://terabox.app/s/1q",
		},
		{
			name: "empty text",
			text: "",
			want: NoURL,
		},
		{
			name: "uppercase host",
			text: "https://TERABOX.COM/s/1abc",
			want: Supported,
			url:  "https://TERABOX.COM/s/1abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotURL := c.Classify(tt.text)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
			if gotURL != tt.url {
				t.Errorf("Classify(%q) url = %q, want %q", tt.text, gotURL, tt.url)
			}
		})
	}
}

func TestCustomDomainList(t *testing.T) {
	c := NewClassifier([]string{"example.org"})

	if got, _ := c.Classify("https://files.example.org/s/1"); got != Supported {
		t.Errorf("expected custom domain to be supported, got %v", got)
	}
	if got, _ := c.Classify("https://terabox.com/s/1"); got != UnsupportedHost {
		t.Errorf("expected default domain to be unsupported with custom list, got %v", got)
	}
}
