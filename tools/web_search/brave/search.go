package brave

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search/models"
)

const defaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

type Search struct {
	Client   *httpclient.Client
	APIKey   string
	Count    int
	Country  string
	Language string
	Endpoint string
}

func (s *Search) Provider() string { return "brave" }

func (s *Search) Search(ctx context.Context, q string) (models.Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	count := s.Count
	if count <= 0 || count > 20 {
		count = 10
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("count", fmt.Sprint(count))
	if s.Country != "" {
		params.Set("country", s.Country)
	}
	if s.Language != "" {
		params.Set("search_lang", s.Language)
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
		FAQ struct {
			Results []struct {
				Question string `json:"question"`
				Answer   string `json:"answer"`
			} `json:"results"`
		} `json:"faq"`
	}
	client := s.Client
	if client == nil {
		client = httpclient.New(0, 1, 0)
	}
	headers := map[string]string{"X-Subscription-Token": s.APIKey}
	if err := client.DoJSON(ctx, http.MethodGet, endpoint+"?"+params.Encode(), headers, nil, &raw); err != nil {
		return models.Result{}, err
	}
	out := models.Result{Provider: s.Provider(), Query: q}
	for _, r := range raw.Web.Results {
		out.Organic = append(out.Organic, models.Organic{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	for _, f := range raw.FAQ.Results {
		out.Questions = append(out.Questions, models.Question{Question: f.Question, Answer: f.Answer})
	}
	return out, nil
}
