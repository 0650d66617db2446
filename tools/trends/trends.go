package trends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
)

const defaultEndpoint = "https://serpapi.com/search.json"

var ErrMissingAPIKey = errors.New("trends api key not configured")

// Row is one time bucket; Values follow Series.Keywords order.
type Row struct {
	Date   string
	Values []int
}

// Series is an interest-over-time table.
type Series struct {
	Keywords []string
	Rows     []Row
}

// Provider fetches search-interest time series.
type Provider interface {
	InterestOverTime(ctx context.Context, keywords []string, geo, timeframe string) (Series, error)
}

// SerpAPIClient reads Google Trends through SerpApi's google_trends engine.
type SerpAPIClient struct {
	http     *httpclient.Client
	apiKey   string
	endpoint string
}

func NewSerpAPIClient(client *httpclient.Client, apiKey, endpoint string) *SerpAPIClient {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if client == nil {
		client = httpclient.New(0, 1, 0)
	}
	return &SerpAPIClient{http: client, apiKey: apiKey, endpoint: endpoint}
}

func (c *SerpAPIClient) InterestOverTime(ctx context.Context, keywords []string, geo, timeframe string) (Series, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return Series{}, ErrMissingAPIKey
	}
	params := url.Values{}
	params.Set("engine", "google_trends")
	params.Set("data_type", "TIMESERIES")
	params.Set("q", strings.Join(keywords, ","))
	params.Set("api_key", c.apiKey)
	if geo != "" {
		params.Set("geo", geo)
	}
	if timeframe != "" {
		params.Set("date", timeframe)
	}
	var raw struct {
		Error            string `json:"error"`
		InterestOverTime struct {
			TimelineData []struct {
				Date   string `json:"date"`
				Values []struct {
					Query          string `json:"query"`
					ExtractedValue int    `json:"extracted_value"`
				} `json:"values"`
			} `json:"timeline_data"`
		} `json:"interest_over_time"`
	}
	if err := c.http.DoJSON(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil, nil, &raw); err != nil {
		return Series{}, err
	}
	if raw.Error != "" {
		return Series{}, fmt.Errorf("trends: %s", raw.Error)
	}
	series := Series{Keywords: append([]string(nil), keywords...)}
	for _, point := range raw.InterestOverTime.TimelineData {
		byQuery := make(map[string]int, len(point.Values))
		for _, v := range point.Values {
			byQuery[strings.ToLower(v.Query)] = v.ExtractedValue
		}
		row := Row{Date: point.Date, Values: make([]int, len(keywords))}
		for i, kw := range keywords {
			row.Values[i] = byQuery[strings.ToLower(kw)]
		}
		series.Rows = append(series.Rows, row)
	}
	return series, nil
}
