package vectorstore

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// ChromemConfig holds configuration for the embedded chromem store.
type ChromemConfig struct {
	// Collection is the collection for all operations.
	Collection string

	// Path is the directory for persistent storage. Empty means
	// in-memory only.
	Path string

	// Compress enables gzip compression for persisted documents.
	Compress bool
}

// Validate validates the configuration.
func (c ChromemConfig) Validate() error {
	if c.Collection == "" {
		return fmt.Errorf("%w: collection required", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore is an embedded Store backed by chromem-go. It needs no
// external server, which makes it the default for single-instance
// deployments and tests. AddDocument overwrites by ID, giving upsert
// semantics for free.
type ChromemStore struct {
	collection *chromem.Collection
}

// NewChromemStore opens (or creates) the collection, persisting to
// disk when a path is configured.
func NewChromemStore(config ChromemConfig) (*ChromemStore, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	var db *chromem.DB
	var err error
	if config.Path != "" {
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: opening store at %s: %v", ErrConnectionFailed, config.Path, err)
		}
	} else {
		db = chromem.NewDB()
	}

	// Embeddings are computed by the caller, so the collection's own
	// embedding func must never run. Passing one that fails loudly
	// catches accidental text-only inserts.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, unusedEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", config.Collection, err)
	}

	return &ChromemStore{collection: collection}, nil
}

func unusedEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings must be precomputed")
}

// Upsert writes documents keyed by ID, overwriting existing entries.
func (s *ChromemStore) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return ErrEmptyDocuments
	}

	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("%w: document %d has no ID", ErrEmptyDocuments, i)
		}
		if len(doc.Vector) == 0 {
			return fmt.Errorf("%w: document %q has no vector", ErrEmptyDocuments, doc.ID)
		}

		// chromem requires non-empty content; the documentation text
		// doubles as content so full-text filters stay usable.
		content := doc.Metadata[MetadataDocumentation]
		if content == "" {
			content = doc.ID
		}

		err := s.collection.AddDocument(ctx, chromem.Document{
			ID:        doc.ID,
			Metadata:  doc.Metadata,
			Embedding: doc.Vector,
			Content:   content,
		})
		if err != nil {
			return fmt.Errorf("%w: adding document %q: %v", ErrIndexUnavailable, doc.ID, err)
		}
	}
	return nil
}

// Query returns up to topK most similar documents. An empty collection
// yields no matches rather than an error.
func (s *ChromemStore) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}

	// chromem rejects nResults > Count(), so clamp.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	matches := make([]Match, 0, len(results))
	for _, res := range results {
		match := Match{ID: res.ID, Score: res.Similarity}
		if includeMetadata {
			metadata := make(map[string]string, len(res.Metadata))
			for k, v := range res.Metadata {
				metadata[k] = v
			}
			match.Metadata = metadata
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Close is a no-op; chromem persists on write.
func (s *ChromemStore) Close() error {
	return nil
}
