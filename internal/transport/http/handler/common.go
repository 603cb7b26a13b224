package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/ai"
	"pdfchat/internal/rag"
	"pdfchat/internal/transport/http/middleware"
	"pdfchat/internal/transport/http/response"
)

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := raw.(uint)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}

// respondPipelineError maps the provider/pipeline error taxonomy onto one
// user-facing message per request. Quota and credential failures are
// actionable by the user and surfaced as such; everything else stays
// generic.
func respondPipelineError(c *gin.Context, err error) {
	var stageErr *rag.StageError
	stage := ""
	if errors.As(err, &stageErr) {
		stage = string(stageErr.Stage) + ": "
	}

	switch {
	case errors.Is(err, ai.ErrMissingCredential):
		response.Error(c, http.StatusBadRequest, response.CodeMissingProviderKey,
			"Gemini API key is required. Provide one on upload or configure a system key.")
	case errors.Is(err, ai.ErrQuotaExceeded):
		response.Error(c, http.StatusTooManyRequests, response.CodeProviderQuota,
			err.Error())
	case errors.Is(err, ai.ErrInvalidCredential):
		response.Error(c, http.StatusBadRequest, response.CodeProviderKeyInvalid,
			"Gemini API key was rejected. Check the key and try again.")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer,
			stage+"processing failed, please try again")
	}
}
