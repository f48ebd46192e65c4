package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/migrationguard/core/pkg/models"
)

// respondError writes the §6 error response shape: a non-empty error_code
// and a non-empty human-readable error_message.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{ErrorCode: code, ErrorMessage: message})
}

// mapError maps a domain error to an HTTP status and error_code, grounded
// on the teacher's mapServiceError — one switch translating sentinel
// errors to their HTTP shape, falling through to a logged 500 for anything
// unrecognized.
func mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidCategory),
		errors.Is(err, models.ErrInvalidConfidence),
		errors.Is(err, models.ErrInvalidActionType),
		errors.Is(err, models.ErrInvalidRiskLevel),
		errors.Is(err, models.ErrUnsupportedSource):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	case errors.Is(err, models.ErrApprovalRequired):
		respondError(c, http.StatusConflict, "approval_required", err.Error())
		return
	}

	var transitionErr *models.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		respondError(c, http.StatusConflict, "invalid_transition", err.Error())
		return
	}

	slog.Error("unexpected api error", "error", err)
	respondError(c, http.StatusInternalServerError, "internal_error", "internal server error")
}
