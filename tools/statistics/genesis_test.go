package statistics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder accepts only the strategy named in accept and logs what it saw.
type recorder struct {
	mu     sync.Mutex
	seen   []string
	accept string
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	strategy := "none"
	switch {
	case r.Header.Get("Authorization") == "Bearer tok":
		strategy = "bearer"
	case r.Header.Get("X-API-Token") == "tok":
		strategy = "header"
	default:
		if u, p, ok := r.BasicAuth(); ok {
			if u == "tok" && p == "" {
				strategy = "token-basic"
			} else if u == "user" && p == "pw" {
				strategy = "basic"
			}
		}
	}
	rec.mu.Lock()
	rec.seen = append(rec.seen, strategy)
	rec.mu.Unlock()
	if strategy != rec.accept || r.PostForm.Get("name") != "12411-0001" || r.PostForm.Get("area") != "all" {
		http.Error(w, "denied for "+strategy, http.StatusUnauthorized)
		return
	}
	_, _ = w.Write([]byte("table via " + strategy))
}

func TestTableFallsThroughStrategiesInOrder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		accept string
		want   []string
	}{
		{accept: "bearer", want: []string{"bearer"}},
		{accept: "header", want: []string{"bearer", "header"}},
		{accept: "token-basic", want: []string{"bearer", "header", "token-basic"}},
		{accept: "basic", want: []string{"bearer", "header", "token-basic", "basic"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.accept, func(t *testing.T) {
			t.Parallel()
			rec := &recorder{accept: tt.accept}
			srv := httptest.NewServer(rec)
			defer srv.Close()

			c := NewClient(httpclient.New(time.Second, 0, 0), srv.URL, Credentials{Token: "tok", Username: "user", Password: "pw"})
			table, err := c.Table(context.Background(), "12411-0001")
			require.NoError(t, err)
			assert.Equal(t, tt.accept, table.Strategy)
			assert.Equal(t, "table via "+tt.accept, table.Body)
			assert.Equal(t, tt.want, rec.seen)
		})
	}
}

func TestTableReportsLastStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(&recorder{accept: "nobody"})
	defer srv.Close()

	_, err := NewClient(httpclient.New(time.Second, 0, 0), srv.URL, Credentials{Token: "tok"}).Table(context.Background(), "12411-0001")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, authErr.TokenOnly)
	assert.Equal(t, []string{"bearer", "header", "token-basic"}, authErr.Attempts)
	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestTableWithoutCredentials(t *testing.T) {
	t.Parallel()
	_, err := NewClient(nil, "", Credentials{}).Table(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotConfigured)
}
