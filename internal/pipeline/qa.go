package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"github.com/fyrsmithlabs/docweaver/internal/logging"
)

// ErrEmptyQuestion indicates a QA request with no question text.
var ErrEmptyQuestion = errors.New("empty question")

// Assistant answers developer questions against the documentation
// index.
type Assistant struct {
	synthesizer Synthesizer
	retriever   *Retriever
	logger      *logging.Logger
}

// NewAssistant creates the question answering pipeline.
func NewAssistant(synthesizer Synthesizer, retriever *Retriever, logger *logging.Logger) *Assistant {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assistant{
		synthesizer: synthesizer,
		retriever:   retriever,
		logger:      logger,
	}
}

// Answer retrieves documentation relevant to the question and asks the
// model for an answer grounded in it.
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	ctx, span := tracer.Start(ctx, "Assistant.Answer")
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	docContext, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(StageRetrieving))
		return "", stageErr(StageRetrieving, err)
	}

	answer, err := a.synthesizer.AnswerQuestion(ctx, question, docContext)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(StageSynthesizing))
		return "", stageErr(StageSynthesizing, err)
	}

	span.SetStatus(codes.Ok, "success")
	return answer, nil
}
