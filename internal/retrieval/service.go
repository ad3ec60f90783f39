// Package retrieval ranks ingested chunks against a query and tracks
// citations for the active session.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"graft/internal/middleware"
	"graft/internal/vector"
)

var ErrNotLoaded = errors.New("no documents loaded")

// previewLen caps citation preview text.
const previewLen = 200

type Result struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	FileType   string  `json:"file_type"`
	Score      float32 `json:"score"`
}

type Citation struct {
	CitationID  int     `json:"citation_id"`
	Source      string  `json:"source"`
	ChunkIndex  int     `json:"chunk_index"`
	FileType    string  `json:"file_type"`
	Score       float32 `json:"score"`
	TextPreview string  `json:"text_preview"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service retrieves against one active collection. The collection and
// the last result set are per-service mutable state; concurrent queries
// race benignly, last write wins.
type Service struct {
	embedder Embedder
	index    vector.Index
	logger   *QueryLogger

	mu          sync.Mutex
	collection  string
	lastSources []Result
}

// NewService wires a retriever. logger may be nil.
func NewService(embedder Embedder, index vector.Index, logger *QueryLogger) *Service {
	return &Service{embedder: embedder, index: index, logger: logger}
}

// SetCollection points the retriever at an ingested collection.
func (s *Service) SetCollection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection = name
}

// Collection returns the active collection name, empty when none is set.
func (s *Service) Collection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection
}

// Loaded reports whether an active collection with content exists.
func (s *Service) Loaded(ctx context.Context) bool {
	name := s.Collection()
	if name == "" {
		return false
	}
	n, err := s.index.Count(ctx, name)
	return err == nil && n > 0
}

// Search returns up to k results ordered by descending score, where
// score is 1 minus cosine distance. The result set is retained for
// LastSources.
func (s *Service) Search(ctx context.Context, query string, k int) ([]Result, error) {
	start := time.Now()

	name := s.Collection()
	if name == "" {
		return nil, ErrNotLoaded
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Query(ctx, name, vec, k)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", name, err)
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			Text:       h.Meta.Text,
			Source:     h.Meta.Source,
			ChunkIndex: h.Meta.ChunkIndex,
			FileType:   h.Meta.FileType,
			Score:      1 - h.Distance,
		}
	}

	s.mu.Lock()
	s.lastSources = append([]Result(nil), results...)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			NumResults:    len(results),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	return results, nil
}

// Context renders search results into one prompt-ready string plus the
// parallel citation list. Both are empty when nothing matches.
func (s *Service) Context(ctx context.Context, query string, k int) (string, []Citation, error) {
	results, err := s.Search(ctx, query, k)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(results))
	citations := make([]Citation, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[Source %d: %s, chunk %d]\n%s", i+1, r.Source, r.ChunkIndex, r.Text))

		preview := r.Text
		// Rune-indexed so a multibyte chunk is never cut mid-sequence.
		if utf8.RuneCountInString(preview) > previewLen {
			preview = string([]rune(preview)[:previewLen]) + "..."
		}
		citations = append(citations, Citation{
			CitationID:  i + 1,
			Source:      r.Source,
			ChunkIndex:  r.ChunkIndex,
			FileType:    r.FileType,
			Score:       r.Score,
			TextPreview: preview,
		})
	}

	return strings.Join(parts, "\n\n---\n\n"), citations, nil
}

// LastSources returns the results of the most recent search.
func (s *Service) LastSources() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.lastSources...)
}
