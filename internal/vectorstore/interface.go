// Package vectorstore defines the vector index interface and its
// Qdrant and chromem-go implementations.
//
// The index stores one document per branch: the document ID is the
// branch name the documentation was generated for, and writing the
// same ID again overwrites the prior entry. Embedding happens outside
// this package; callers hand in ready-made vectors.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrConnectionFailed indicates the store backend is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrIndexUnavailable indicates a store operation failed.
	ErrIndexUnavailable = errors.New("vector store operation failed")
)

// Store is the interface for vector index operations.
//
// Implementations must serialize concurrent upserts to the same ID
// themselves (last write wins) and allow queries to run concurrently
// with upserts; a query racing an upsert for the same ID may observe
// either version.
//
// Implementations:
//   - ChromemStore: embedded chromem-go (default, no external service)
//   - QdrantStore: external Qdrant over gRPC
type Store interface {
	// Upsert writes documents keyed by ID, overwriting existing
	// entries with the same ID.
	Upsert(ctx context.Context, docs []Document) error

	// Query returns up to topK stored documents most similar to the
	// given vector, ordered by descending similarity score. Metadata
	// is populated only when includeMetadata is true.
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]Match, error)

	// Close releases the store connection and resources.
	Close() error
}
