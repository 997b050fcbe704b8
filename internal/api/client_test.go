package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"crawlwatch/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", WithHTTPClient(srv.Client()), WithRequestIDs(func() string { return "req-1" }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRejectsRelativeBase(t *testing.T) {
	tests := []string{"", "api", "/api", "localhost"}
	for _, base := range tests {
		if _, err := New(base); err == nil {
			t.Errorf("New(%q) expected error, got nil", base)
		}
	}
}

func TestFetchStatus(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		body       string
		want       model.StatusRecord
		wantErr    bool
		notFound   bool
		statusCode int
	}{
		{
			name: "running",
			code: http.StatusOK,
			body: `{"distance":3,"numPages":40,"startTimeMillis":1700000000000,"stopReason":null}`,
			want: model.StatusRecord{Distance: 3, NumPages: 40, StartTimeMillis: 1700000000000},
		},
		{
			name: "finished with error text",
			code: http.StatusOK,
			body: `{"distance":2,"numPages":10,"stopReason":"maxUrls","errorMessage":"partial"}`,
			want: model.StatusRecord{Distance: 2, NumPages: 10, StopReason: "maxUrls", ErrorMessage: "partial"},
		},
		{
			name:     "expired",
			code:     http.StatusNotFound,
			body:     "not found",
			wantErr:  true,
			notFound: true,
		},
		{
			name:       "server error",
			code:       http.StatusBadGateway,
			body:       "failed to load status",
			wantErr:    true,
			statusCode: http.StatusBadGateway,
		},
		{
			name:    "garbage body",
			code:    http.StatusOK,
			body:    "<html>",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/api/crawl/job-1" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("X-Request-ID"); got != "req-1" {
					t.Errorf("X-Request-ID = %q, want req-1", got)
				}
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := c.FetchStatus(context.Background(), "job-1")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("FetchStatus expected error, got nil")
				}
				if tt.notFound != errors.Is(err, model.ErrJobNotFound) {
					t.Errorf("errors.Is(ErrJobNotFound) = %v, want %v (err %v)", !tt.notFound, tt.notFound, err)
				}
				if tt.statusCode != 0 {
					var se *StatusError
					if !errors.As(err, &se) || se.Code != tt.statusCode {
						t.Errorf("expected StatusError %d, got %v", tt.statusCode, err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchStatus unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FetchStatus = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFetchStatusEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/crawl/a%2Fb%20c" {
			t.Errorf("escaped path = %q", r.URL.EscapedPath())
		}
		_, _ = io.WriteString(w, `{}`)
	})
	if _, err := c.FetchStatus(context.Background(), "a/b c"); err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}
}

func TestFetchStatusNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.FetchStatus(context.Background(), "x")
	if err == nil || errors.Is(err, model.ErrJobNotFound) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestStartCrawl(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "json string", body: `"abc123"`, want: "abc123"},
		{name: "json object", body: `{"id":"abc123"}`, want: "abc123"},
		{name: "crawlId object", body: `{"crawlId":"abc123"}`, want: "abc123"},
		{name: "plain text", body: "abc123\n", want: "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/crawl" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var req model.CrawlRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if req.URL != "https://example.com" || req.MaxDistance != 2 || req.MaxSeconds != 60 || req.MaxURLs != 10 {
					t.Errorf("unexpected request body %+v", req)
				}
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := c.StartCrawl(context.Background(), model.CrawlRequest{
				URL: "https://example.com", MaxDistance: 2, MaxSeconds: 60, MaxURLs: 10,
			})
			if err != nil {
				t.Fatalf("StartCrawl: %v", err)
			}
			if got != tt.want {
				t.Errorf("StartCrawl = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStartCrawlEmptyID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `""`)
	})
	if _, err := c.StartCrawl(context.Background(), model.CrawlRequest{URL: "https://example.com"}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestStopCrawl(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.Method != http.MethodPost || r.URL.Path != "/api/crawl/job-1/stop" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusAccepted)
	})
	if err := c.StopCrawl(context.Background(), "job-1"); err != nil {
		t.Fatalf("StopCrawl: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" || r.URL.Query().Get("query") != "go lang" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[{"url":"https://go.dev","snippet":"<b>Go</b> is fun"},"https://golang.org"]`)
	})

	got, err := c.Search(context.Background(), "go lang")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search returned %d results, want 2", len(got))
	}
	if got[0].URL != "https://go.dev" || got[0].Snippet != "<b>Go</b> is fun" {
		t.Errorf("unexpected first result %+v", got[0])
	}
	if got[1].URL != "https://golang.org" || got[1].Snippet != "" {
		t.Errorf("unexpected second result %+v", got[1])
	}
}
