package serper

import (
	"context"
	"net/http"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search/models"
)

const defaultEndpoint = "https://google.serper.dev/search"

type Search struct {
	Client   *httpclient.Client
	APIKey   string
	Num      int
	Country  string
	Language string
	Endpoint string
}

func (s *Search) Provider() string { return "serper" }

func (s *Search) Search(ctx context.Context, q string) (models.Result, error) {
	// https://serper.dev/ docs
	payload := map[string]any{"q": q, "num": max1(s.Num, 10)}
	if s.Country != "" {
		payload["gl"] = s.Country
	}
	if s.Language != "" {
		payload["hl"] = s.Language
	}
	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
		PeopleAlsoAsk []struct {
			Question string `json:"question"`
			Snippet  string `json:"snippet"`
			Title    string `json:"title"`
		} `json:"peopleAlsoAsk"`
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	client := s.Client
	if client == nil {
		client = httpclient.New(0, 1, 0)
	}
	if err := client.DoJSON(ctx, http.MethodPost, endpoint, map[string]string{"X-API-KEY": s.APIKey}, payload, &raw); err != nil {
		return models.Result{}, err
	}
	out := models.Result{Provider: s.Provider(), Query: q}
	for _, r := range raw.Organic {
		out.Organic = append(out.Organic, models.Organic{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	for _, p := range raw.PeopleAlsoAsk {
		question := p.Question
		if question == "" {
			question = p.Title
		}
		out.Questions = append(out.Questions, models.Question{Question: question, Answer: p.Snippet})
	}
	return out, nil
}

func max1(a, def int) int {
	if a > 0 {
		return a
	}
	return def
}
