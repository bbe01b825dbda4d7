package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docweaver/internal/scm"
)

// Pull request actions that trigger documentation generation.
const (
	actionOpened   = "opened"
	actionReopened = "reopened"
)

// WebhookPayload is the subset of the pull request webhook event the
// service consumes.
type WebhookPayload struct {
	Action      string `json:"action"`
	PullRequest struct {
		Number int `json:"number"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Head struct {
			Ref  string `json:"ref"`
			Repo struct {
				Name string `json:"name"`
			} `json:"repo"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
	} `json:"pull_request"`
}

// qualifies reports whether the event should trigger documentation
// generation: a pull request opened or reopened against the target
// branch.
func (p WebhookPayload) qualifies(targetBranch string) bool {
	if p.Action != actionOpened && p.Action != actionReopened {
		return false
	}
	return p.PullRequest.Base.Ref == targetBranch
}

func (p WebhookPayload) ref() scm.PullRequestRef {
	return scm.PullRequestRef{
		Owner:   p.PullRequest.User.Login,
		Repo:    p.PullRequest.Head.Repo.Name,
		Number:  p.PullRequest.Number,
		HeadRef: p.PullRequest.Head.Ref,
		BaseRef: p.PullRequest.Base.Ref,
	}
}

// WebhookResponse is the success body for POST /webhook.
type WebhookResponse struct {
	Message       string `json:"message"`
	Documentation string `json:"documentation"`
}

// handleWebhook receives pull request events and runs the
// documentation pipeline for qualifying ones. Non-qualifying events
// are acknowledged with 204 so the sender does not retry them.
func (s *Server) handleWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	var payload WebhookPayload
	if err := c.Bind(&payload); err != nil {
		s.logger.Warn(ctx, "invalid webhook payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid webhook payload"})
	}

	if !payload.qualifies(s.config.TargetBranch) {
		s.logger.Debug(ctx, "ignoring webhook event",
			zap.String("action", payload.Action),
			zap.String("base", payload.PullRequest.Base.Ref),
		)
		return c.NoContent(http.StatusNoContent)
	}

	ref := payload.ref()
	if err := ref.Validate(); err != nil {
		s.logger.Warn(ctx, "invalid pull request reference", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid pull request reference"})
	}

	s.logger.Info(ctx, "generating documentation",
		zap.String("repo", ref.Owner+"/"+ref.Repo),
		zap.Int("pr", ref.Number),
		zap.String("head", ref.HeadRef),
	)

	documentation, err := s.docs.Run(ctx, ref)
	if err != nil {
		return s.webhookError(c, err)
	}

	return c.JSON(http.StatusOK, WebhookResponse{
		Message:       "Documentation generated successfully!",
		Documentation: documentation,
	})
}

// webhookError maps pipeline failures to responses. Upstream SCM
// failures keep their original status so the caller can tell a missing
// repository from a broken service.
func (s *Server) webhookError(c echo.Context, err error) error {
	ctx := c.Request().Context()

	var upstream *scm.UpstreamError
	if errors.As(err, &upstream) {
		s.logger.Error(ctx, "upstream request failed",
			zap.String("op", upstream.Op),
			zap.Int("status", upstream.StatusCode),
			zap.Error(err),
		)
		status := upstream.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		return c.JSON(status, ErrorResponse{Error: "failed to fetch pull request data"})
	}

	if errors.Is(err, scm.ErrEmptyDiff) {
		s.logger.Info(ctx, "pull request has no changed files")
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "pull request has no changed files"})
	}

	s.logger.Error(ctx, "documentation pipeline failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "documentation generation failed"})
}
