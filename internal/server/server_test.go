package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/constellation/internal/api"
	"github.com/kittclouds/constellation/internal/store"
)

func seeded(t *testing.T) *store.MemStore {
	t.Helper()
	s := store.NewMemStore()
	require.NoError(t, s.UpsertWord(&store.Word{ID: "1", Text: "sea", CreatedAt: 1}))
	require.NoError(t, s.UpsertWord(&store.Word{ID: "2", Text: "ocean", CreatedAt: 2}))
	require.NoError(t, s.UpsertWord(&store.Word{ID: "3", Text: "바다", CreatedAt: 3}))
	require.NoError(t, s.UpsertSentence(&store.Sentence{ID: "a", Text: "The sea and the ocean.", CreatedAt: 1}))
	require.NoError(t, s.UpsertSentence(&store.Sentence{ID: "b", Text: "Sea, ocean, 바다.", CreatedAt: 2}))
	return s
}

func fixedClock() time.Time { return time.Unix(1700000000, 0) }

func newServer(t *testing.T, st store.Storer, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(st, append([]Option{WithClock(fixedClock)}, opts...)...))
	t.Cleanup(srv.Close)
	return srv
}

func TestGraphEndToEnd(t *testing.T) {
	st := seeded(t)
	srv := newServer(t, st, WithToken("tok"))

	resp, err := http.Post(srv.URL+"/autolink", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/autolink", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var added map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	resp.Body.Close()
	assert.Equal(t, 5, added["added"])

	client := api.NewClient(api.WithBaseURL(srv.URL), api.WithToken("tok"), api.WithRateLimit(0))
	p, err := client.GetGraph(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Nodes, 5)
	assert.Len(t, p.Edges, 5)

	_, err = api.NewClient(api.WithBaseURL(srv.URL), api.WithRateLimit(0)).GetGraph(context.Background())
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, "Not authenticated", api.UserMessage(err))
}

func TestConstellationEndpoint(t *testing.T) {
	st := seeded(t)
	srv := newServer(t, st)
	linked, err := http.Post(srv.URL+"/autolink", "", nil)
	require.NoError(t, err)
	linked.Body.Close()

	client := api.NewClient(api.WithBaseURL(srv.URL), api.WithRateLimit(0))
	resp, err := client.GetConstellation(context.Background(), 50, 2)
	require.NoError(t, err)
	require.Len(t, resp.Edges, 1)
	assert.Equal(t, "e1-2", resp.Edges[0].ID)
	assert.Equal(t, 2, resp.Edges[0].Data.Weight)

	all, err := client.GetConstellation(context.Background(), 50, 1)
	require.NoError(t, err)
	assert.Len(t, all.Edges, 3)
	var langs []string
	for _, n := range all.Nodes {
		langs = append(langs, n.Data.Language)
	}
	assert.Equal(t, []string{"en", "en", "ko"}, langs)

	r, err := http.Get(srv.URL + "/constellation?limit=ten")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t, seeded(t))

	resp, err := http.Post(srv.URL+"/graph/", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodGet, resp.Header.Get("Allow"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "method not allowed", body["message"])
}

type brokenStore struct {
	*store.MemStore
}

func (brokenStore) ListWords() ([]*store.Word, error) { return nil, errors.New("disk gone") }

func TestStoreFailureIs500(t *testing.T) {
	srv := newServer(t, brokenStore{store.NewMemStore()})
	client := api.NewClient(api.WithBaseURL(srv.URL), api.WithRateLimit(0))

	_, err := client.GetGraph(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(err))
	assert.Equal(t, "failed loading graph", api.UserMessage(err))
}

func TestHealth(t *testing.T) {
	srv := newServer(t, seeded(t), WithToken("tok"))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 3.0, body["words"])
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(seeded(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestBasePath(t *testing.T) {
	srv := newServer(t, seeded(t), WithBasePath("/api/v1/"))

	p, err := api.NewClient(api.WithBaseURL(srv.URL+"/api/v1"), api.WithRateLimit(0)).GetGraph(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Nodes, 5)

	resp, err := http.Get(srv.URL + "/graph/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
