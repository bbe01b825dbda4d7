// Package pipeline wires extraction, retrieval, synthesis, indexing,
// and publication into the two flows the service exposes: generating
// documentation for a pull request and answering questions against
// the documentation index.
package pipeline

import (
	"context"

	"github.com/fyrsmithlabs/docweaver/internal/scm"
	"github.com/fyrsmithlabs/docweaver/internal/secrets"
	"github.com/fyrsmithlabs/docweaver/internal/vectorstore"
)

// Extractor produces the text representation of a pull request's
// changed files.
type Extractor interface {
	Extract(ctx context.Context, ref scm.PullRequestRef) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is the similarity index the pipelines read from and write to.
type Index interface {
	Upsert(ctx context.Context, docs []vectorstore.Document) error
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]vectorstore.Match, error)
}

// Synthesizer generates documentation and answers.
type Synthesizer interface {
	GenerateDocumentation(ctx context.Context, code, docContext string) (string, error)
	AnswerQuestion(ctx context.Context, question, docContext string) (string, error)
}

// Publisher posts generated documentation back to the pull request.
type Publisher interface {
	PublishComment(ctx context.Context, ref scm.PullRequestRef, body string) error
}

// Scrubber redacts secrets from extracted code before it leaves the
// process.
type Scrubber interface {
	Scrub(content string) *secrets.Result
}
