package model

import (
	"errors"
	"time"
)

var (
	// ErrJobNotFound is returned by status fetches when the server no longer knows the job.
	ErrJobNotFound = errors.New("crawl job not found")
	// ErrInvalidOptions marks configuration that failed validation.
	ErrInvalidOptions = errors.New("invalid options")
)

// StopReason classifies why a crawl ended. The empty value means the crawl is still running.
type StopReason string

const (
	ReasonNone          StopReason = ""
	ReasonTimeout       StopReason = "timeout"
	ReasonUserInitiated StopReason = "userInitiated"
	ReasonError         StopReason = "error"
	ReasonCompleted     StopReason = "completed"
)

// Terminal reports whether the reason marks a finished crawl.
func (r StopReason) Terminal() bool {
	return r != ReasonNone
}

// StatusRecord is the server-reported state of a crawl job, as returned by GET /api/crawl/{id}.
// Timestamps are epoch milliseconds; 0 means absent.
type StatusRecord struct {
	Distance           int        `json:"distance"`
	NumPages           int        `json:"numPages"`
	StartTimeMillis    int64      `json:"startTimeMillis,omitempty"`
	LastModifiedMillis int64      `json:"lastModifiedMillis,omitempty"`
	MaxTimeMillis      int64      `json:"maxTimeMillis,omitempty"`
	StopReason         StopReason `json:"stopReason,omitempty"`
	ErrorMessage       string     `json:"errorMessage,omitempty"`
}

// Terminal reports whether the record carries a stop reason.
func (r StatusRecord) Terminal() bool {
	return r.StopReason.Terminal()
}

// CrawlRequest is the body of POST /api/crawl.
type CrawlRequest struct {
	URL         string `json:"url"`
	MaxDistance int    `json:"maxDistance"`
	MaxSeconds  int    `json:"maxSeconds"`
	MaxURLs     int    `json:"maxUrls"`
}

// Defaults used by the crawl form.
const (
	DefaultMaxDistance = 2
	DefaultMaxSeconds  = 60
	DefaultMaxURLs     = 10
)

// SearchResult is one hit returned by GET /api/search.
type SearchResult struct {
	URL     string `json:"url"`
	Snippet string `json:"snippet"` // HTML fragment
}

// Options holds runtime settings resolved from flags, env and config file.
type Options struct {
	APIBase        string
	PollInterval   time.Duration
	TickInterval   time.Duration
	MaxSeconds     int
	RequestTimeout time.Duration
	Verbose        bool
	DebugLog       string // TUI log file; empty disables
	NoUI           bool
}
