package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docweaver/internal/pipeline"
)

// AssistantRequest is the request body for POST /doc-assistant.
type AssistantRequest struct {
	Question string `json:"question"`
}

// AssistantResponse is the success body for POST /doc-assistant.
type AssistantResponse struct {
	Response string `json:"response"`
}

// handleAssistant answers a developer question grounded in the
// documentation index.
func (s *Server) handleAssistant(c echo.Context) error {
	ctx := c.Request().Context()

	var req AssistantRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid assistant request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	answer, err := s.assistant.Answer(ctx, req.Question)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyQuestion) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "question was not provided"})
		}
		s.logger.Error(ctx, "answering question failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to answer question"})
	}

	return c.JSON(http.StatusOK, AssistantResponse{Response: answer})
}
