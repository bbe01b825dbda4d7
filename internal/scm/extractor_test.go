package scm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docweaver/internal/logging"
)

// fakeAPI implements pullRequestAPI for extractor tests.
type fakeAPI struct {
	files      []ChangedFile
	filesErr   error
	contents   map[string]string
	contentErr error
}

func (f *fakeAPI) ListPullRequestFiles(ctx context.Context, ref PullRequestRef) ([]ChangedFile, error) {
	return f.files, f.filesErr
}

func (f *fakeAPI) FileContent(ctx context.Context, ref PullRequestRef, path string) (string, error) {
	if f.contentErr != nil {
		return "", f.contentErr
	}
	content, ok := f.contents[path]
	if !ok {
		return "", &UpstreamError{StatusCode: 404, Op: "fetch file content", Err: fmt.Errorf("missing")}
	}
	return content, nil
}

func TestNewExtractorValidatesMode(t *testing.T) {
	api := &fakeAPI{}
	_, err := newExtractor(api, Mode("diffstat"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diffstat")

	_, err = newExtractor(nil, ModePatch, nil)
	require.Error(t, err)
}

func TestExtractPatchMode(t *testing.T) {
	api := &fakeAPI{
		files: []ChangedFile{
			{Filename: "foo.py", Patch: "@@ -0,0 +1 @@\n+def f(): pass"},
			{Filename: "bar.py", Patch: "@@ -1,2 +1,3 @@\n context\n+added"},
		},
	}
	ex, err := newExtractor(api, ModePatch, logging.NewNop())
	require.NoError(t, err)

	subject, err := ex.Extract(context.Background(), testRef())
	require.NoError(t, err)

	// @@ hunk headers are stripped; filenames and patch bodies survive.
	assert.NotContains(t, subject, "@@")
	assert.Contains(t, subject, "foo.py\n\n+def f(): pass\n\n")
	assert.Contains(t, subject, "bar.py\n\n context\n+added\n\n")
}

func TestExtractFullContentMode(t *testing.T) {
	api := &fakeAPI{
		files: []ChangedFile{
			{Filename: "foo.py", Patch: "@@ -0,0 +1 @@\n+def f(): pass", ContentsURL: "https://example.test/foo.py"},
		},
		contents: map[string]string{"foo.py": "def f(): pass\n"},
	}
	ex, err := newExtractor(api, ModeFullContent, logging.NewNop())
	require.NoError(t, err)

	subject, err := ex.Extract(context.Background(), testRef())
	require.NoError(t, err)
	assert.Contains(t, subject, "foo.py\n\ndef f(): pass\n")
}

func TestExtractFullContentFallsBackToPatch(t *testing.T) {
	api := &fakeAPI{
		files: []ChangedFile{
			{Filename: "gone.py", Patch: "@@ -1 +0,0 @@\n-removed", ContentsURL: "https://example.test/gone.py"},
		},
		contentErr: &UpstreamError{StatusCode: 404, Op: "fetch file content", Err: fmt.Errorf("deleted")},
	}
	ex, err := newExtractor(api, ModeFullContent, logging.NewNop())
	require.NoError(t, err)

	subject, err := ex.Extract(context.Background(), testRef())
	require.NoError(t, err)
	assert.Contains(t, subject, "gone.py\n\n-removed\n\n")
	assert.NotContains(t, subject, "@@")
}

func TestExtractFullContentSkipsFetchWithoutContentsURL(t *testing.T) {
	api := &fakeAPI{
		files: []ChangedFile{
			{Filename: "big.bin", Patch: ""},
		},
	}
	ex, err := newExtractor(api, ModeFullContent, logging.NewNop())
	require.NoError(t, err)

	subject, err := ex.Extract(context.Background(), testRef())
	require.NoError(t, err)
	assert.Contains(t, subject, "big.bin")
}

func TestExtractEmptyDiff(t *testing.T) {
	ex, err := newExtractor(&fakeAPI{}, ModePatch, logging.NewNop())
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), testRef())
	assert.ErrorIs(t, err, ErrEmptyDiff)
}

func TestExtractPropagatesUpstreamError(t *testing.T) {
	api := &fakeAPI{
		filesErr: &UpstreamError{StatusCode: 404, Op: "list pull request files", Err: fmt.Errorf("not found")},
	}
	ex, err := newExtractor(api, ModePatch, logging.NewNop())
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), testRef())
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 404, upstream.StatusCode)
}

func TestCleanPatch(t *testing.T) {
	assert.Equal(t, "", cleanPatch(""))
	assert.Equal(t, "+a\n-b", cleanPatch("@@ -1,1 +1,1 @@\n+a\n-b"))
	assert.Equal(t, "+a\n+b", cleanPatch("@@ -0,0 +1 @@\n+a\n@@ -5,0 +6 @@\n+b"))
}
