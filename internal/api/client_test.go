package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/constellation/pkg/graph"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(append([]ClientOption{WithBaseURL(srv.URL + "/"), WithRateLimit(0)}, opts...)...)
}

const samplePayload = `{
  "nodes": [
    {"id":"w1","label":"sea","type":"word","review_count":2},
    {"id":"w2","label":"ocean","type":"word","meaning":"대양"},
    {"id":"s1","label":"...","type":"sentence"}
  ],
  "edges": [{"from":"w1","to":"s1"},{"from":"w2","to":"s1"}]
}`

func TestGetGraph(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}, WithToken("secret"))

	p, err := c.GetGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/graph/", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)

	require.Len(t, p.Nodes, 3)
	assert.Equal(t, 2, p.Nodes[0].Reviews())
	assert.Equal(t, graph.KindSentence, p.Nodes[2].Kind)
	require.NotNil(t, p.Nodes[1].Meaning)
	assert.Equal(t, "대양", *p.Nodes[1].Meaning)
	assert.Len(t, p.Edges, 2)
}

func TestGetGraphEmptyBodies(t *testing.T) {
	for _, body := range []string{"", `{}`, `{"nodes":[],"edges":[]}`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		p, err := c.GetGraph(context.Background())
		require.NoError(t, err, body)
		assert.NotNil(t, p.Nodes)
		assert.Empty(t, p.Nodes)
		assert.NotNil(t, p.Edges)
	}
}

func TestGetGraphMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"dangling edge", `{"nodes":[{"id":"a","label":"a","type":"word"}],"edges":[{"from":"a","to":"b"}]}`},
		{"unknown type", `{"nodes":[{"id":"a","label":"a","type":"phrase"}],"edges":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.GetGraph(context.Background())
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestHTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		detail  string
		is      error
	}{
		{"message wins", 500, `{"message":"db down","detail":"timeout"}`, "db down", "timeout", nil},
		{"detail fallback", 404, `{"detail":"Not Found"}`, "Not Found", "Not Found", nil},
		{"structured detail", 422, `{"detail":[{"loc":["q"]}]}`, `[{"loc":["q"]}]`, `[{"loc":["q"]}]`, nil},
		{"plain body", 502, "bad gateway", "HTTP error! status: 502", "", nil},
		{"empty body", 503, "", "HTTP error! status: 503", "", nil},
		{"auth", 401, `{"detail":"expired"}`, "expired", "expired", ErrAuth},
		{"forbidden", 403, "", "HTTP error! status: 403", "", ErrAuth},
		{"rate limited", 429, "", "HTTP error! status: 429", "", ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.GetGraph(context.Background())
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.detail, apiErr.Detail)
			assert.Equal(t, tt.message, UserMessage(err))
			assert.Equal(t, tt.status, StatusCode(err))
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := c.GetGraph(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Zero(t, StatusCode(err))
}

func TestContextCancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetGraph(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenSourceError(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, WithTokenSource(func(context.Context) (string, error) {
		return "", errors.New("refresh failed")
	}))

	_, err := c.GetGraph(context.Background())
	assert.True(t, IsAuthError(err))
	assert.False(t, called)
}

func TestGetConstellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/constellation", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "3", r.URL.Query().Get("minWeight"))
		w.Write([]byte(`{"nodes":[{"id":"1","position":{"x":1,"y":2},"data":{"label":"love","wordId":"1","language":"en"},"type":"wordNode"}],"edges":[]}`))
	})

	resp, err := c.GetConstellation(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, "love", resp.Nodes[0].Data.Label)
	assert.Equal(t, 2.0, resp.Nodes[0].Position.Y)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient()
	assert.Equal(t, BaseURL, c.BaseURL())
	assert.Equal(t, "http://x", NewClient(WithBaseURL("http://x///")).BaseURL())
}
