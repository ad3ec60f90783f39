package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graft/internal/vector"
	"graft/internal/vector/memory"
)

type stubEmbedder struct {
	vec  []float32
	fail bool
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("embed failure")
	}
	return s.vec, nil
}

func seedCollection(t *testing.T, idx *memory.Index, name string, records ...vector.Record) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, idx.Create(ctx, name))
	require.NoError(t, idx.Add(ctx, name, records))
}

func chunkRecord(id string, vec []float32, source, text string, index int) vector.Record {
	return vector.Record{
		ID:     id,
		Vector: vec,
		Meta:   vector.ChunkMeta{Text: text, Source: source, FileType: ".txt", ChunkIndex: index},
	}
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("fails before any collection is set", func(t *testing.T) {
		svc := NewService(&stubEmbedder{vec: []float32{1, 0}}, memory.New(), nil)
		_, err := svc.Search(ctx, "query", 3)
		assert.ErrorIs(t, err, ErrNotLoaded)

		_, _, err = svc.Context(ctx, "query", 3)
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("scores are similarity, non-increasing", func(t *testing.T) {
		idx := memory.New()
		seedCollection(t, idx, "docs",
			chunkRecord("a", []float32{1, 0}, "a.txt", "exact", 0),
			chunkRecord("b", []float32{1, 0.3}, "a.txt", "near", 1),
			chunkRecord("c", []float32{0, 1}, "b.txt", "far", 0),
		)

		svc := NewService(&stubEmbedder{vec: []float32{1, 0}}, idx, nil)
		svc.SetCollection("docs")

		results, err := svc.Search(ctx, "query", 3)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.InDelta(t, 1, float64(results[0].Score), 1e-6)
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
		}
		assert.Equal(t, "exact", results[0].Text)
		assert.Equal(t, "a.txt", results[0].Source)
	})

	t.Run("k caps results", func(t *testing.T) {
		idx := memory.New()
		seedCollection(t, idx, "docs",
			chunkRecord("a", []float32{1, 0}, "a.txt", "one", 0),
			chunkRecord("b", []float32{1, 0.1}, "a.txt", "two", 1),
		)

		svc := NewService(&stubEmbedder{vec: []float32{1, 0}}, idx, nil)
		svc.SetCollection("docs")

		results, err := svc.Search(ctx, "query", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("embedder failure surfaces", func(t *testing.T) {
		idx := memory.New()
		seedCollection(t, idx, "docs")

		svc := NewService(&stubEmbedder{fail: true}, idx, nil)
		svc.SetCollection("docs")

		_, err := svc.Search(ctx, "query", 3)
		assert.ErrorContains(t, err, "embed query")
	})

	t.Run("last sources reflect the most recent search", func(t *testing.T) {
		idx := memory.New()
		seedCollection(t, idx, "docs",
			chunkRecord("a", []float32{1, 0}, "a.txt", "alpha", 0),
			chunkRecord("b", []float32{0, 1}, "b.txt", "beta", 0),
		)

		svc := NewService(&stubEmbedder{vec: []float32{1, 0}}, idx, nil)
		svc.SetCollection("docs")
		assert.Empty(t, svc.LastSources())

		_, err := svc.Search(ctx, "first", 1)
		require.NoError(t, err)
		first := svc.LastSources()
		require.Len(t, first, 1)
		assert.Equal(t, "alpha", first[0].Text)

		_, err = svc.Search(ctx, "second", 2)
		require.NoError(t, err)
		assert.Len(t, svc.LastSources(), 2)
	})
}

func TestService_Context(t *testing.T) {
	ctx := context.Background()

	newLoaded := func(t *testing.T, records ...vector.Record) *Service {
		t.Helper()
		idx := memory.New()
		seedCollection(t, idx, "docs", records...)
		svc := NewService(&stubEmbedder{vec: []float32{1, 0}}, idx, nil)
		svc.SetCollection("docs")
		return svc
	}

	t.Run("numbered blocks with separator", func(t *testing.T) {
		svc := newLoaded(t,
			chunkRecord("a", []float32{1, 0}, "guide.txt", "chunk about routing", 2),
			chunkRecord("b", []float32{1, 0.2}, "guide.txt", "chunk about handlers", 3),
		)

		text, citations, err := svc.Context(ctx, "query", 2)
		require.NoError(t, err)

		assert.Contains(t, text, "[Source 1: guide.txt, chunk 2]\nchunk about routing")
		assert.Contains(t, text, "[Source 2: guide.txt, chunk 3]\nchunk about handlers")
		assert.Contains(t, text, "\n\n---\n\n")

		require.Len(t, citations, 2)
		assert.Equal(t, 1, citations[0].CitationID)
		assert.Equal(t, 2, citations[1].CitationID)
		assert.Equal(t, ".txt", citations[0].FileType)
	})

	t.Run("long chunk previews truncated at 200 chars", func(t *testing.T) {
		long := strings.Repeat("x", 450)
		svc := newLoaded(t, chunkRecord("a", []float32{1, 0}, "big.txt", long, 0))

		text, citations, err := svc.Context(ctx, "query", 1)
		require.NoError(t, err)

		require.Len(t, citations, 1)
		assert.Len(t, citations[0].TextPreview, 203)
		assert.True(t, strings.HasSuffix(citations[0].TextPreview, "..."))
		// The context itself carries the full chunk.
		assert.Contains(t, text, long)
	})

	t.Run("multibyte previews truncated on a rune boundary", func(t *testing.T) {
		long := strings.Repeat("€", 450)
		svc := newLoaded(t, chunkRecord("a", []float32{1, 0}, "euro.txt", long, 0))

		_, citations, err := svc.Context(ctx, "query", 1)
		require.NoError(t, err)

		require.Len(t, citations, 1)
		preview := citations[0].TextPreview
		assert.True(t, utf8.ValidString(preview))
		assert.Equal(t, 203, utf8.RuneCountInString(preview))
		assert.True(t, strings.HasSuffix(preview, "..."))
	})

	t.Run("short previews left alone", func(t *testing.T) {
		svc := newLoaded(t, chunkRecord("a", []float32{1, 0}, "s.txt", "short chunk", 0))
		_, citations, err := svc.Context(ctx, "query", 1)
		require.NoError(t, err)
		assert.Equal(t, "short chunk", citations[0].TextPreview)
	})

	t.Run("empty collection yields empty context", func(t *testing.T) {
		svc := newLoaded(t)
		text, citations, err := svc.Context(ctx, "query", 3)
		require.NoError(t, err)
		assert.Empty(t, text)
		assert.Empty(t, citations)
	})
}

func TestService_Loaded(t *testing.T) {
	ctx := context.Background()
	idx := memory.New()
	svc := NewService(&stubEmbedder{vec: []float32{1, 0}}, idx, nil)

	assert.False(t, svc.Loaded(ctx))

	seedCollection(t, idx, "docs")
	svc.SetCollection("docs")
	assert.False(t, svc.Loaded(ctx), "empty collection does not count as loaded")

	require.NoError(t, idx.Add(ctx, "docs", []vector.Record{chunkRecord("a", []float32{1, 0}, "a.txt", "text", 0)}))
	assert.True(t, svc.Loaded(ctx))
}

func TestQueryLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)

	logger.Log(QueryLogEntry{Query: "goroutines", NumResults: 3})

	var entry QueryLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "goroutines", entry.Query)
	assert.Equal(t, 3, entry.NumResults)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestSearchLogsQueries(t *testing.T) {
	idx := memory.New()
	seedCollection(t, idx, "docs", chunkRecord("a", []float32{1, 0}, "a.txt", "text", 0))

	var buf bytes.Buffer
	svc := NewService(&stubEmbedder{vec: []float32{1, 0}}, idx, NewQueryLogger(&buf))
	svc.SetCollection("docs")

	_, err := svc.Search(context.Background(), "what is a channel", 1)
	require.NoError(t, err)

	var entry QueryLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "what is a channel", entry.Query)
	assert.Equal(t, 1, entry.NumResults)
}
