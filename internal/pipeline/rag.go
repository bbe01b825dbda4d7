package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docweaver/internal/logging"
	"github.com/fyrsmithlabs/docweaver/internal/scm"
	"github.com/fyrsmithlabs/docweaver/internal/vectorstore"
)

var tracer = otel.Tracer("docweaver.pipeline")

// Documentation runs the full generation flow for a pull request:
// extract changed code, retrieve similar documentation, synthesize new
// documentation, index it under the head branch, and publish it as a
// pull request comment.
type Documentation struct {
	extractor   Extractor
	embedder    Embedder
	index       Index
	synthesizer Synthesizer
	publisher   Publisher
	scrubber    Scrubber
	retriever   *Retriever
	logger      *logging.Logger
}

// NewDocumentation creates the documentation pipeline. scrubber may be
// nil to disable secret redaction.
func NewDocumentation(
	extractor Extractor,
	embedder Embedder,
	index Index,
	synthesizer Synthesizer,
	publisher Publisher,
	scrubber Scrubber,
	retriever *Retriever,
	logger *logging.Logger,
) *Documentation {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Documentation{
		extractor:   extractor,
		embedder:    embedder,
		index:       index,
		synthesizer: synthesizer,
		publisher:   publisher,
		scrubber:    scrubber,
		retriever:   retriever,
		logger:      logger,
	}
}

// Run executes the pipeline for one pull request and returns the
// generated documentation.
//
// The index write and the comment are ordered so the index is durable
// first: a comment failure is logged and does not fail the run, since
// the documentation already exists in the index and the response body.
func (d *Documentation) Run(ctx context.Context, ref scm.PullRequestRef) (string, error) {
	ctx, span := tracer.Start(ctx, "Documentation.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("repo", ref.Owner+"/"+ref.Repo),
		attribute.Int("pr", ref.Number),
		attribute.String("head", ref.HeadRef),
	)

	code, err := d.extractor.Extract(ctx, ref)
	if err != nil {
		return "", d.fail(span, StageExtracting, err)
	}

	if d.scrubber != nil {
		result := d.scrubber.Scrub(code)
		if result.HasFindings() {
			d.logger.Warn(ctx, "redacted secrets from extracted code",
				zap.Int("findings", result.TotalFindings))
			code = result.Scrubbed
		}
	}

	if err := ctx.Err(); err != nil {
		return "", d.fail(span, StageRetrieving, err)
	}
	docContext, err := d.retriever.Retrieve(ctx, code)
	if err != nil {
		return "", d.fail(span, StageRetrieving, err)
	}

	if err := ctx.Err(); err != nil {
		return "", d.fail(span, StageSynthesizing, err)
	}
	documentation, err := d.synthesizer.GenerateDocumentation(ctx, code, docContext)
	if err != nil {
		return "", d.fail(span, StageSynthesizing, err)
	}

	if err := ctx.Err(); err != nil {
		return "", d.fail(span, StageIndexing, err)
	}
	vector, err := d.embedder.EmbedQuery(ctx, documentation)
	if err != nil {
		return "", d.fail(span, StageIndexing, fmt.Errorf("embedding documentation: %w", err))
	}
	err = d.index.Upsert(ctx, []vectorstore.Document{{
		ID:     ref.HeadRef,
		Vector: vector,
		Metadata: map[string]string{
			vectorstore.MetadataDocumentation: documentation,
		},
	}})
	if err != nil {
		return "", d.fail(span, StageIndexing, err)
	}

	if err := ctx.Err(); err != nil {
		return "", d.fail(span, StagePublishing, err)
	}
	if err := d.publisher.PublishComment(ctx, ref, documentation); err != nil {
		d.logger.Error(ctx, "publishing documentation comment failed",
			zap.Error(err),
			zap.String("repo", ref.Owner+"/"+ref.Repo),
			zap.Int("pr", ref.Number))
	}

	span.SetStatus(codes.Ok, "success")
	return documentation, nil
}

func (d *Documentation) fail(span trace.Span, stage Stage, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage))
	return stageErr(stage, err)
}
