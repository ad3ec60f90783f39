// Package vector defines the vector index capability shared by the
// ingestion pipeline and the retriever.
package vector

import (
	"context"
	"errors"
)

var ErrCollectionNotFound = errors.New("collection not found")

// ChunkMeta is the payload stored alongside each vector.
type ChunkMeta struct {
	Text       string
	Source     string
	FileType   string
	Title      string
	ChunkIndex int
}

// Record is a vector plus its payload, identified for idempotent writes.
type Record struct {
	ID     string
	Vector []float32
	Meta   ChunkMeta
}

// Hit is one nearest-neighbour match. Distance is cosine distance, so
// lower is closer.
type Hit struct {
	ID       string
	Distance float32
	Meta     ChunkMeta
}

// Index is a named-collection vector store with cosine distance.
type Index interface {
	// Create makes an empty collection, replacing any prior contents.
	Create(ctx context.Context, name string) error
	// Delete removes a collection; deleting an absent collection is a no-op.
	Delete(ctx context.Context, name string) error
	// Add inserts records into an existing collection.
	Add(ctx context.Context, name string, records []Record) error
	// Query returns up to k nearest hits ordered by ascending distance.
	Query(ctx context.Context, name string, vec []float32, k int) ([]Hit, error)
	// Count reports the number of records in a collection.
	Count(ctx context.Context, name string) (int, error)
}
