package scm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docweaver/internal/logging"
)

// Mode selects the diff extraction strategy.
type Mode string

const (
	// ModeFullContent fetches the whole changed file at the head ref,
	// falling back to the cleaned patch when the content is not
	// available.
	ModeFullContent Mode = "full_content"

	// ModePatch uses only the patch hunks, with @@ header lines
	// stripped since they carry line offsets, not semantics.
	ModePatch Mode = "patch"
)

// pullRequestAPI is the slice of Client the extractor needs.
type pullRequestAPI interface {
	ListPullRequestFiles(ctx context.Context, ref PullRequestRef) ([]ChangedFile, error)
	FileContent(ctx context.Context, ref PullRequestRef, path string) (string, error)
}

// Extractor turns a pull request into a single normalized text blob of
// its changed content. File order follows the upstream API so repeated
// runs over the same diff produce identical text.
type Extractor struct {
	api    pullRequestAPI
	mode   Mode
	logger *logging.Logger
}

// NewExtractor creates an Extractor with the given strategy.
func NewExtractor(client *Client, mode Mode, logger *logging.Logger) (*Extractor, error) {
	return newExtractor(client, mode, logger)
}

func newExtractor(api pullRequestAPI, mode Mode, logger *logging.Logger) (*Extractor, error) {
	if api == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	switch mode {
	case ModeFullContent, ModePatch:
	default:
		return nil, fmt.Errorf("unknown extraction mode %q", mode)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{api: api, mode: mode, logger: logger}, nil
}

// Extract produces the subject text for a pull request.
//
// Returns ErrEmptyDiff when the pull request touches no files, and an
// *UpstreamError when the file listing cannot be fetched.
func (e *Extractor) Extract(ctx context.Context, ref PullRequestRef) (string, error) {
	files, err := e.api.ListPullRequestFiles(ctx, ref)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrEmptyDiff
	}

	blocks := make([]string, 0, len(files))
	for _, file := range files {
		content := e.fileText(ctx, ref, file)
		blocks = append(blocks, fmt.Sprintf("%s\n\n%s\n\n", file.Filename, content))
	}

	subject := strings.Join(blocks, "\n")
	e.logger.Debug(ctx, "extracted pull request diff",
		zap.Int("files", len(files)),
		zap.Int("subject_len", len(subject)),
		zap.String("mode", string(e.mode)),
	)
	return subject, nil
}

// fileText resolves one file's text per the configured strategy.
func (e *Extractor) fileText(ctx context.Context, ref PullRequestRef, file ChangedFile) string {
	if e.mode == ModeFullContent && file.ContentsURL != "" {
		content, err := e.api.FileContent(ctx, ref, file.Filename)
		if err == nil {
			return content
		}
		e.logger.Warn(ctx, "file content unavailable, using patch",
			zap.String("file", file.Filename),
			zap.Error(err),
		)
	}
	return cleanPatch(file.Patch)
}

// cleanPatch strips @@ hunk header lines from a unified diff.
func cleanPatch(patch string) string {
	if patch == "" {
		return ""
	}
	lines := strings.Split(patch, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "@@") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
