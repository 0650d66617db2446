package statistics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
)

// DefaultEndpoint is the GENESIS-Online table export.
const DefaultEndpoint = "https://www-genesis.destatis.de/genesisWS/rest/2020/data/table"

// ErrNotConfigured means neither a token nor username/password are set.
var ErrNotConfigured = errors.New("statistics credentials not configured: set a token or username/password")

// Credentials for the statistics service.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// AuthStrategy is one way of presenting credentials.
type AuthStrategy struct {
	Name    string
	UsesKey bool
	apply   func(*httpclient.Request)
}

// Table is a successful export.
type Table struct {
	Name     string
	Strategy string
	Body     string
}

// AuthError reports that every strategy was rejected.
type AuthError struct {
	TokenOnly bool
	Attempts  []string
	Last      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("statistics: all auth strategies failed (%s): %v", strings.Join(e.Attempts, ", "), e.Last)
}

func (e *AuthError) Unwrap() error { return e.Last }

// Client fetches tables, trying auth strategies in order until one gets a 200.
type Client struct {
	http     *httpclient.Client
	endpoint string
	creds    Credentials
}

func NewClient(client *httpclient.Client, endpoint string, creds Credentials) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = httpclient.New(0, 0, 0)
	}
	return &Client{http: client, endpoint: endpoint, creds: creds}
}

// Strategies lists the applicable strategies in priority order:
// bearer token, X-API-Token header, token as basic-auth user, then
// username/password basic auth.
func (c *Client) Strategies() []AuthStrategy {
	var out []AuthStrategy
	if token := strings.TrimSpace(c.creds.Token); token != "" {
		out = append(out,
			AuthStrategy{Name: "bearer", UsesKey: true, apply: func(r *httpclient.Request) {
				r.Headers["Authorization"] = "Bearer " + token
			}},
			AuthStrategy{Name: "header", UsesKey: true, apply: func(r *httpclient.Request) {
				r.Headers["X-API-Token"] = token
			}},
			AuthStrategy{Name: "token-basic", UsesKey: true, apply: func(r *httpclient.Request) {
				r.UseBasic, r.Username, r.Password = true, token, ""
			}},
		)
	}
	if c.creds.Username != "" && c.creds.Password != "" {
		user, pass := c.creds.Username, c.creds.Password
		out = append(out, AuthStrategy{Name: "basic", apply: func(r *httpclient.Request) {
			r.UseBasic, r.Username, r.Password = true, user, pass
		}})
	}
	return out
}

// Table posts the export form once per strategy; the first HTTP 200 wins.
func (c *Client) Table(ctx context.Context, name string) (Table, error) {
	strategies := c.Strategies()
	if len(strategies) == 0 {
		return Table{}, ErrNotConfigured
	}
	form := url.Values{}
	form.Set("name", name)
	form.Set("area", "all")
	form.Set("compress", "false")
	form.Set("language", "de")
	body := []byte(form.Encode())

	authErr := &AuthError{TokenOnly: true}
	for _, s := range strategies {
		req := httpclient.Request{
			Method:  http.MethodPost,
			URL:     c.endpoint,
			Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
			Body:    body,
		}
		s.apply(&req)
		authErr.Attempts = append(authErr.Attempts, s.Name)
		if !s.UsesKey {
			authErr.TokenOnly = false
		}
		resp, err := c.http.Do(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return Table{}, ctx.Err()
			}
			authErr.Last = err
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return Table{Name: name, Strategy: s.Name, Body: string(resp.Body)}, nil
		}
		authErr.Last = &httpclient.StatusError{Code: resp.StatusCode, Body: string(resp.Body)}
	}
	return Table{}, authErr
}
