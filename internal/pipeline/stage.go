package pipeline

import "fmt"

// Stage identifies a step of the retrieval-augmented pipeline.
type Stage string

const (
	StageExtracting   Stage = "extracting"
	StageRetrieving   Stage = "retrieving"
	StageSynthesizing Stage = "synthesizing"
	StageIndexing     Stage = "indexing"
	StagePublishing   Stage = "publishing"
)

// StageError wraps a failure with the stage it occurred in, so callers
// can map failures to responses without string matching.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
