package metadata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{BaseURL: server.URL, APIKey: "test-key"}, logger)
}

func TestClient_Lookup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "hollow knight", r.URL.Query().Get("search"))
		w.Write([]byte(`{"results":[{"external_id":"hk-1","title":"Hollow Knight","genres":["metroidvania"]}]}`))
	})

	meta, err := client.Lookup(context.Background(), "hollow knight")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "hk-1", meta.ExternalID)
	assert.Equal(t, []string{"metroidvania"}, meta.Genres)
}

func TestClient_Lookup_NoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	meta, err := client.Lookup(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestClient_Lookup_CachesRepeatedCalls(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"results":[{"external_id":"hk-1","title":"Hollow Knight"}]}`))
	})

	for i := 0; i < 3; i++ {
		_, err := client.Lookup(context.Background(), "hollow knight")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Lookup_ProviderFailureDegradesToNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	meta, err := client.Lookup(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Nil(t, meta)
}

func TestClient_Get_FailureSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Get(context.Background(), "hk-1")
	assert.Error(t, err)
}

func TestClient_Get_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/hk-1", r.URL.Path)
		w.Write([]byte(`{"external_id":"hk-1","title":"Hollow Knight","metacritic":90}`))
	})

	meta, err := client.Get(context.Background(), "hk-1")
	require.NoError(t, err)
	assert.Equal(t, 90, meta.Metacritic)
}
