package web_fetch

import (
	"context"
	"errors"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
)

// HTTPFetcher downloads pages with a plain GET.
type HTTPFetcher struct {
	client *httpclient.Client
}

// NewHTTPFetcher wraps client. A nil client is replaced by a default one so
// Fetch never mutates the fetcher.
func NewHTTPFetcher(client *httpclient.Client) *HTTPFetcher {
	if client == nil {
		client = httpclient.New(DefaultTimeout, 1, 0)
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", errors.New("invalid url")
	}
	body, err := f.client.Get(ctx, url, map[string]string{"Accept": "text/html,application/xhtml+xml"})
	if err != nil {
		return "", err
	}
	return string(body), nil
}
