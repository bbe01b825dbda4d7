package vectorstore

import (
	"errors"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestQdrantConfig_ApplyDefaults(t *testing.T) {
	config := QdrantConfig{Collection: "docs", VectorSize: 1536}
	config.ApplyDefaults()

	assert.Equal(t, "localhost", config.Host)
	assert.Equal(t, 6334, config.Port)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, time.Second, config.RetryBackoff)
}

func TestQdrantConfig_Validate(t *testing.T) {
	valid := QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "docs",
		VectorSize: 1536,
	}

	tests := []struct {
		name    string
		mutate  func(*QdrantConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*QdrantConfig) {}},
		{name: "missing host", mutate: func(c *QdrantConfig) { c.Host = "" }, wantErr: true},
		{name: "invalid port", mutate: func(c *QdrantConfig) { c.Port = 70000 }, wantErr: true},
		{name: "missing collection", mutate: func(c *QdrantConfig) { c.Collection = "" }, wantErr: true},
		{name: "uppercase collection", mutate: func(c *QdrantConfig) { c.Collection = "Docs" }, wantErr: true},
		{name: "missing vector size", mutate: func(c *QdrantConfig) { c.VectorSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "unavailable", err: status.Error(grpccodes.Unavailable, "down"), want: true},
		{name: "deadline exceeded", err: status.Error(grpccodes.DeadlineExceeded, "slow"), want: true},
		{name: "aborted", err: status.Error(grpccodes.Aborted, "conflict"), want: true},
		{name: "resource exhausted", err: status.Error(grpccodes.ResourceExhausted, "quota"), want: true},
		{name: "invalid argument", err: status.Error(grpccodes.InvalidArgument, "bad"), want: false},
		{name: "not found", err: status.Error(grpccodes.NotFound, "missing"), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestPayloadSelector(t *testing.T) {
	t.Run("with metadata requests the full payload", func(t *testing.T) {
		selector := payloadSelector(true)
		assert.True(t, selector.GetEnable())
	})

	t.Run("without metadata still requests the document id", func(t *testing.T) {
		selector := payloadSelector(false)
		require.NotNil(t, selector.GetInclude())
		assert.Equal(t, []string{"id"}, selector.GetInclude().GetFields())
	})
}

func TestPointsToMatches(t *testing.T) {
	points := []*qdrant.ScoredPoint{
		{
			Score: 0.9,
			Payload: map[string]*qdrant.Value{
				"id":            {Kind: &qdrant.Value_StringValue{StringValue: "refs/heads/feature-x"}},
				"documentation": {Kind: &qdrant.Value_StringValue{StringValue: "## Docs"}},
			},
		},
		{Score: 0.4},
	}

	t.Run("with metadata", func(t *testing.T) {
		matches := pointsToMatches(points, true)
		require.Len(t, matches, 2)
		assert.Equal(t, "refs/heads/feature-x", matches[0].ID)
		assert.Equal(t, float32(0.9), matches[0].Score)
		assert.Equal(t, "## Docs", matches[0].Metadata["documentation"])
		assert.Empty(t, matches[1].ID)
	})

	t.Run("without metadata keeps the id", func(t *testing.T) {
		matches := pointsToMatches(points, false)
		require.Len(t, matches, 2)
		assert.Equal(t, "refs/heads/feature-x", matches[0].ID)
		assert.Nil(t, matches[0].Metadata)
	})
}

func TestPointID_Deterministic(t *testing.T) {
	a := pointID("refs/heads/feature-x")
	b := pointID("refs/heads/feature-x")
	c := pointID("refs/heads/feature-y")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	// Qdrant requires UUID point IDs.
	assert.Len(t, a, 36)
}
