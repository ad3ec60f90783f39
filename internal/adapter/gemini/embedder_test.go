package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"graft/internal/adapter/gemini"
)

func fakeGemini(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func newTestEmbedder(t *testing.T, ts *httptest.Server) *gemini.Embedder {
	t.Helper()
	e, err := gemini.NewEmbedder(context.Background(), "test-key", "gemini-embedding-001",
		option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEmbedder_Embed(t *testing.T) {
	ts := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": map[string]interface{}{
				"values": []float32{0.1, 0.2, 0.3},
			},
		})
	})

	vec, err := newTestEmbedder(t, ts).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	t.Run("one round trip for all texts", func(t *testing.T) {
		calls := 0
		ts := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"embeddings": []map[string]interface{}{
					{"values": []float32{1, 0}},
					{"values": []float32{0, 1}},
				},
			})
		})

		vecs, err := newTestEmbedder(t, ts).EmbedBatch(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		require.Len(t, vecs, 2)
		assert.Equal(t, []float32{1, 0}, vecs[0])
		assert.Equal(t, []float32{0, 1}, vecs[1])
		assert.Equal(t, 1, calls)
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		ts := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"embeddings": []map[string]interface{}{
					{"values": []float32{1, 0}},
				},
			})
		})

		_, err := newTestEmbedder(t, ts).EmbedBatch(context.Background(), []string{"a", "b"})
		assert.ErrorContains(t, err, "mismatch")
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		ts := fakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for an empty batch")
		})

		vecs, err := newTestEmbedder(t, ts).EmbedBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vecs)
	})
}
