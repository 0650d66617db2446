package web_search

import (
	"context"
	"errors"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search/brave"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search/models"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search/serper"
)

// Searcher queries a snippet / related-question provider.
type Searcher interface {
	Search(ctx context.Context, query string) (models.Result, error)
	Provider() string
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported search provider")
	ErrMissingAPIKey       = errors.New("search provider api key not configured")
)

// Options configures a backend. BaseURL is only set in tests.
type Options struct {
	APIKey     string
	MaxResults int
	Country    string
	Language   string
	BaseURL    string
}

// NewSearcher returns the backend for provider; a missing key yields
// ErrMissingAPIKey so callers can report the configuration gap.
func NewSearcher(provider Provider, client *httpclient.Client, opts Options) (Searcher, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	switch provider {
	case SerperProvider:
		return &serper.Search{Client: client, APIKey: opts.APIKey, Num: opts.MaxResults, Country: opts.Country, Language: opts.Language, Endpoint: opts.BaseURL}, nil
	case BraveProvider:
		return &brave.Search{Client: client, APIKey: opts.APIKey, Count: opts.MaxResults, Country: opts.Country, Language: opts.Language, Endpoint: opts.BaseURL}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
