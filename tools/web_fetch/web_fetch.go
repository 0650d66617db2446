package web_fetch

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_fetch/chromedp"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 20000
	// MinBlockChars is the shortest text block kept by the tag extractor.
	MinBlockChars = 30
)

// Fetcher returns the raw HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherType selects the Fetcher implementation.
type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

var ErrUnsupportedFetcher = &Error{"unsupported fetcher type"}

// NewFetcher builds the configured fetcher. The http fetcher reuses client.
func NewFetcher(fetcherType FetcherType, client *httpclient.Client, timeout time.Duration, userAgent string) (Fetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch fetcherType {
	case HTTPFetcherType, "":
		return NewHTTPFetcher(client), nil
	case ChromedpFetcherType:
		return &chromedp.Fetch{Timeout: timeout, UserAgent: userAgent}, nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}
