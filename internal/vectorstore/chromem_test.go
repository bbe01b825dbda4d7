package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{Collection: "test_docs"})
	require.NoError(t, err)
	return store
}

func TestNewChromemStore_Validation(t *testing.T) {
	_, err := NewChromemStore(ChromemConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewChromemStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewChromemStore(ChromemConfig{Collection: "test_docs", Path: dir})
	require.NoError(t, err)
	defer store.Close()

	err = store.Upsert(context.Background(), []Document{
		{ID: "feature-x", Vector: []float32{1, 0, 0}, Metadata: map[string]string{MetadataDocumentation: "docs"}},
	})
	require.NoError(t, err)

	// Reopening the same path must see the persisted document.
	reopened, err := NewChromemStore(ChromemConfig{Collection: "test_docs", Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	matches, err := reopened.Query(context.Background(), []float32{1, 0, 0}, 3, true)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "feature-x", matches[0].ID)
}

func TestChromemStore_UpsertAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Document{
		{ID: "feature-auth", Vector: []float32{1, 0, 0}, Metadata: map[string]string{MetadataDocumentation: "auth docs"}},
		{ID: "feature-billing", Vector: []float32{0, 1, 0}, Metadata: map[string]string{MetadataDocumentation: "billing docs"}},
	})
	require.NoError(t, err)

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 1, true)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "feature-auth", matches[0].ID)
	assert.Equal(t, "auth docs", matches[0].Metadata[MetadataDocumentation])
	assert.InDelta(t, 1.0, matches[0].Score, 0.001)
}

func TestChromemStore_UpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := Document{ID: "feature-x", Vector: []float32{1, 0, 0}, Metadata: map[string]string{MetadataDocumentation: "first"}}
	require.NoError(t, store.Upsert(ctx, []Document{doc}))

	doc.Metadata = map[string]string{MetadataDocumentation: "second"}
	require.NoError(t, store.Upsert(ctx, []Document{doc}))

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 3, true)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "second", matches[0].Metadata[MetadataDocumentation])
}

func TestChromemStore_QueryEmptyStore(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.Query(context.Background(), []float32{1, 0, 0}, 3, true)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemStore_QueryClampsTopK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Document{
		{ID: "only", Vector: []float32{1, 0, 0}, Metadata: map[string]string{MetadataDocumentation: "docs"}},
	}))

	// topK exceeds the collection size; must not error.
	matches, err := store.Query(ctx, []float32{1, 0, 0}, 10, true)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestChromemStore_QueryWithoutMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Document{
		{ID: "doc", Vector: []float32{1, 0, 0}, Metadata: map[string]string{MetadataDocumentation: "docs"}},
	}))

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 1, false)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].Metadata)
}

func TestChromemStore_UpsertValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("empty batch", func(t *testing.T) {
		err := store.Upsert(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptyDocuments)
	})

	t.Run("missing id", func(t *testing.T) {
		err := store.Upsert(ctx, []Document{{Vector: []float32{1}}})
		assert.ErrorIs(t, err, ErrEmptyDocuments)
	})

	t.Run("missing vector", func(t *testing.T) {
		err := store.Upsert(ctx, []Document{{ID: "x"}})
		assert.ErrorIs(t, err, ErrEmptyDocuments)
	})
}

func TestChromemStore_QueryValidation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Query(context.Background(), []float32{1}, 0, true)
	assert.Error(t, err)

	_, err = store.Query(context.Background(), nil, 3, true)
	assert.Error(t, err)
}
