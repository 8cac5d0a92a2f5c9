package resolver

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad test JSON: %v", err)
	}
	return doc
}

func TestExtractMediaURLKnownFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "root dlink",
			raw:  `{"dlink": "https://d.example.com/v.mp4", "thumb": "https://d.example.com/t.jpg"}`,
			want: "https://d.example.com/v.mp4",
		},
		{
			name: "download wins over url",
			raw:  `{"url": "https://page.example.com/view", "download": "https://d.example.com/v.mp4"}`,
			want: "https://d.example.com/v.mp4",
		},
		{
			name: "entry inside results list",
			raw:  `{"response": [{"title": "v", "direct_link": "https://d.example.com/v.mkv"}]}`,
			want: "https://d.example.com/v.mkv",
		},
		{
			name: "known field with non-url value is skipped",
			raw:  `{"download": "pending", "link": "https://d.example.com/v.mp4"}`,
			want: "https://d.example.com/v.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractMediaURL(decode(t, tt.raw)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractMediaURLScanFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "nested unknown field with media extension",
			raw:  `{"data": {"payload": {"video_src": "https://cdn.example.com/clip.mp4"}}}`,
			want: "https://cdn.example.com/clip.mp4",
		},
		{
			name: "hls path marker",
			raw:  `{"x": "https://cdn.example.com/hls/master"}`,
			want: "https://cdn.example.com/hls/master",
		},
		{
			name: "https beats http",
			raw:  `{"a": "http://cdn.example.com/long/path/clip.mp4", "b": "https://cdn.example.com/c.mp4"}`,
			want: "https://cdn.example.com/c.mp4",
		},
		{
			name: "longer url wins at same scheme",
			raw:  `{"a": "https://c.example.com/v.mp4", "b": "https://c.example.com/v.mp4?sig=abc123"}`,
			want: "https://c.example.com/v.mp4?sig=abc123",
		},
		{
			name: "non-media urls ignored",
			raw:  `{"profile": "https://example.com/user/1", "site": "https://example.com"}`,
			want: "",
		},
		{
			name: "scalar document",
			raw:  `"just a string"`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractMediaURL(decode(t, tt.raw)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
