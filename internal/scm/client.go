package scm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/docweaver/internal/config"
	"github.com/fyrsmithlabs/docweaver/internal/logging"
)

// ClientConfig holds GitHub client configuration.
type ClientConfig struct {
	// Token is the bearer token for all API calls.
	Token config.Secret

	// BaseURL overrides the API base URL (tests, GitHub Enterprise).
	// Empty means api.github.com.
	BaseURL string

	// RequestTimeout bounds each API call including retries' backoff.
	// Default: 30 seconds.
	RequestTimeout time.Duration

	// Retry configures bounded retries for transient failures.
	Retry RetryConfig
}

// Client wraps the GitHub REST API with authentication, per-call
// timeouts, and bounded retries for transient failures.
type Client struct {
	gh      *github.Client
	cfg     ClientConfig
	logger  *logging.Logger
	timeout time.Duration
}

// NewClient creates a GitHub client with proper authentication.
func NewClient(ctx context.Context, cfg ClientConfig, logger *logging.Logger) (*Client, error) {
	if !cfg.Token.IsSet() {
		return nil, fmt.Errorf("GitHub token not set")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg.Retry.ApplyDefaults()

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
	tc := oauth2.NewClient(ctx, ts)
	gh := github.NewClient(tc)

	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := gh.BaseURL.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:      gh,
		cfg:     cfg,
		logger:  logger,
		timeout: timeout,
	}, nil
}

// ListPullRequestFiles enumerates the changed files of a pull request
// in upstream order, following pagination.
func (c *Client) ListPullRequestFiles(ctx context.Context, ref PullRequestRef) ([]ChangedFile, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pull request ref: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var files []ChangedFile
	opts := &github.ListOptions{PerPage: 100}
	for {
		var page []*github.CommitFile
		resp, err := c.withRetry(ctx, "list pull request files", func() (*github.Response, error) {
			var resp *github.Response
			var err error
			page, resp, err = c.gh.PullRequests.ListFiles(ctx, ref.Owner, ref.Repo, ref.Number, opts)
			return resp, err
		})
		if err != nil {
			return nil, upstreamError("list pull request files", resp, err)
		}

		for _, f := range page {
			files = append(files, ChangedFile{
				Filename:    f.GetFilename(),
				Patch:       f.GetPatch(),
				ContentsURL: f.GetContentsURL(),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Debug(ctx, "listed pull request files",
		zap.Int("count", len(files)),
		zap.Int("pr_number", ref.Number),
	)
	return files, nil
}

// FileContent fetches the full content of a file at the PR head ref.
// The upstream API returns base64; go-github decodes it.
func (c *Client) FileContent(ctx context.Context, ref PullRequestRef, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content *github.RepositoryContent
	resp, err := c.withRetry(ctx, "fetch file content", func() (*github.Response, error) {
		var resp *github.Response
		var err error
		content, _, resp, err = c.gh.Repositories.GetContents(ctx, ref.Owner, ref.Repo, path,
			&github.RepositoryContentGetOptions{Ref: ref.HeadRef})
		return resp, err
	})
	if err != nil {
		return "", upstreamError("fetch file content", resp, err)
	}
	if content == nil {
		return "", &UpstreamError{Op: "fetch file content", Err: fmt.Errorf("%s is not a file", path)}
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", &UpstreamError{Op: "fetch file content", Err: fmt.Errorf("decoding %s: %w", path, err)}
	}
	return decoded, nil
}

// PublishComment posts a comment on the pull request.
func (c *Client) PublishComment(ctx context.Context, ref PullRequestRef, body string) error {
	if body == "" {
		return fmt.Errorf("comment body cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.withRetry(ctx, "publish comment", func() (*github.Response, error) {
		_, resp, err := c.gh.Issues.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number,
			&github.IssueComment{Body: github.String(body)})
		return resp, err
	})
	if err != nil {
		return upstreamError("publish comment", resp, err)
	}

	c.logger.Info(ctx, "published pull request comment",
		zap.Int("pr_number", ref.Number),
		zap.Int("body_len", len(body)),
	)
	return nil
}

// upstreamError wraps a failed API call, preserving the upstream
// status code when a response was received.
func upstreamError(op string, resp *github.Response, err error) error {
	return &UpstreamError{StatusCode: statusCode(resp), Op: op, Err: err}
}

// statusCode extracts the HTTP status from a response, 0 if absent.
func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
