package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/docweaver/internal/vectorstore"
)

// Retriever embeds a query and assembles a context string from the
// most similar indexed documentation.
type Retriever struct {
	embedder Embedder
	index    Index
	topK     int
	minScore float32
}

// NewRetriever creates a Retriever. topK bounds how many documents are
// fetched; minScore drops weaker matches (zero keeps everything).
func NewRetriever(embedder Embedder, index Index, topK int, minScore float32) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
		minScore: minScore,
	}
}

// Retrieve returns the documentation of the topK nearest neighbors of
// text, joined by blank lines. An empty index yields an empty context,
// not an error.
func (r *Retriever) Retrieve(ctx context.Context, text string) (string, error) {
	vector, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	matches, err := r.index.Query(ctx, vector, r.topK, true)
	if err != nil {
		return "", fmt.Errorf("querying index: %w", err)
	}

	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		if match.Score < r.minScore {
			continue
		}
		doc := match.Metadata[vectorstore.MetadataDocumentation]
		if doc == "" {
			continue
		}
		parts = append(parts, doc)
	}
	return strings.Join(parts, "\n\n"), nil
}
