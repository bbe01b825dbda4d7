// Package scm talks to the source-control API for pull-request file
// listing, file content fetching, and comment publishing.
//
// The only supported backend is the GitHub REST API via go-github; the
// package boundary keeps GitHub types out of the pipeline.
package scm

import (
	"errors"
	"fmt"
)

// ErrEmptyDiff is returned when a pull request touches zero files.
var ErrEmptyDiff = errors.New("pull request touches no files")

// UpstreamError reports a failed source-control API call.
// StatusCode is the upstream HTTP status, or 0 when the API was
// unreachable (transport error, no response).
type UpstreamError struct {
	StatusCode int
	Op         string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: upstream unreachable: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PullRequestRef identifies a pull request and the branches involved.
type PullRequestRef struct {
	// Owner is the repository owner used for API routing. The webhook
	// payload supplies the PR author's login here.
	Owner string

	// Repo is the repository name.
	Repo string

	// Number is the pull request number.
	Number int

	// HeadRef is the source branch. It keys the documentation entry
	// in the vector index.
	HeadRef string

	// BaseRef is the target branch.
	BaseRef string
}

// Validate checks that the ref can address API resources.
func (r PullRequestRef) Validate() error {
	if r.Owner == "" || r.Repo == "" {
		return fmt.Errorf("owner and repo required")
	}
	if r.Number <= 0 {
		return fmt.Errorf("invalid pull request number %d", r.Number)
	}
	if r.HeadRef == "" {
		return fmt.Errorf("head ref required")
	}
	return nil
}

// ChangedFile is one changed file in a pull request.
type ChangedFile struct {
	// Filename is the repository-relative path.
	Filename string

	// Patch is the unified diff hunk text. May be empty for binary
	// or very large files.
	Patch string

	// ContentsURL is non-empty when the upstream API exposes the full
	// file content for this entry.
	ContentsURL string
}
