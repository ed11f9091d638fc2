package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/codesync/codesync-server/internal/exec"
)

// ExecuteHandlers provides the code-execution REST endpoint.
type ExecuteHandlers struct {
	judge   *exec.Client
	limiter *rateLimiter
	log     *zerolog.Logger
}

// NewExecuteHandlers creates a new execute handlers instance.
func NewExecuteHandlers(judge *exec.Client, limiter *rateLimiter, logger *zerolog.Logger) *ExecuteHandlers {
	return &ExecuteHandlers{judge: judge, limiter: limiter, log: logger}
}

// ExecuteRequest represents the execution request body.
type ExecuteRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required"`
}

// Execute runs the submitted code through the external judge.
// POST /api/execute
func (h *ExecuteHandlers) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid execute request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "code and language are required"})
		return
	}

	if exec.IsClientSide(req.Language) {
		c.JSON(http.StatusOK, exec.Result{
			Stdout: "HTML and CSS are rendered in the browser and cannot be executed on the server.",
		})
		return
	}

	if !h.limiter.allow() {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "execution rate limit exceeded"})
		return
	}

	result, err := h.judge.Run(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		// Service faults are distinct from a successful-but-failing program
		// run; the latter comes back as a Result.
		switch {
		case errors.Is(err, exec.ErrUnsupportedLanguage):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, exec.ErrMissingAPIKey):
			h.log.Error().Msg("execute requested without configured api key")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "execution service is not configured"})
		case errors.Is(err, exec.ErrPollTimeout):
			h.log.Warn().Str("language", req.Language).Msg("judge polling exceeded attempt cap")
			c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "execution timed out"})
		default:
			h.log.Error().Err(err).Msg("judge request failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "failed to reach the execution service"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
