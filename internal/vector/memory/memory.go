// Package memory provides a brute-force in-memory vector.Index, used by
// pipeline and retriever tests and as a fallback when no Weaviate
// instance is configured.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"graft/internal/vector"
)

type Index struct {
	mu          sync.RWMutex
	collections map[string][]vector.Record
}

func New() *Index {
	return &Index{collections: make(map[string][]vector.Record)}
}

func (i *Index) Create(_ context.Context, name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.collections[name] = nil
	return nil
}

func (i *Index) Delete(_ context.Context, name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.collections, name)
	return nil
}

func (i *Index) Add(_ context.Context, name string, records []vector.Record) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	existing, ok := i.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", vector.ErrCollectionNotFound, name)
	}
	i.collections[name] = append(existing, records...)
	return nil
}

func (i *Index) Query(_ context.Context, name string, vec []float32, k int) ([]vector.Hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	records, ok := i.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vector.ErrCollectionNotFound, name)
	}

	hits := make([]vector.Hit, 0, len(records))
	for _, r := range records {
		hits = append(hits, vector.Hit{
			ID:       r.ID,
			Distance: cosineDistance(vec, r.Vector),
			Meta:     r.Meta,
		})
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (i *Index) Count(_ context.Context, name string) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	records, ok := i.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", vector.ErrCollectionNotFound, name)
	}
	return len(records), nil
}

// cosineDistance is 1 minus cosine similarity. A zero-magnitude vector
// on either side yields the maximum distance of 1.
func cosineDistance(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
