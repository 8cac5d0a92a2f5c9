package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "", srv.Client()), srv
}

func TestResolveSuccess(t *testing.T) {
	var gotQuery string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"dlink": "https://cdn.example.com/video.mp4"}`))
	})
	defer srv.Close()

	direct, err := c.Resolve(context.Background(), "https://terabox.com/s/1abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if direct != "https://cdn.example.com/video.mp4" {
		t.Errorf("got %q", direct)
	}
	if gotQuery != "https://terabox.com/s/1abc" {
		t.Errorf("share url not passed through, got %q", gotQuery)
	}
}

func TestResolveSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"url": "https://cdn.example.com/f.mp4"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret123", srv.Client())
	if _, err := c.Resolve(context.Background(), "https://terabox.com/s/1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "secret123" {
		t.Errorf("api key not sent, got %q", gotKey)
	}
}

func TestResolveFailuresMapToErrUnresolvable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "non-json body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>rate limited</html>"))
			},
		},
		{
			name: "json with no candidate",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status": "error", "message": "file not found"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(tt.handler)
			defer srv.Close()

			_, err := c.Resolve(context.Background(), "https://terabox.com/s/1")
			if !errors.Is(err, ErrUnresolvable) {
				t.Errorf("expected ErrUnresolvable, got %v", err)
			}
		})
	}
}

func TestResolveTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	c := NewClient(srv.URL, "", nil)
	_, err := c.Resolve(context.Background(), "https://terabox.com/s/1")
	if !errors.Is(err, ErrUnresolvable) {
		t.Errorf("expected ErrUnresolvable, got %v", err)
	}
}
