package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/pkg/apperrors"
	"github.com/eduserv/ledger/internal/pkg/logger"
)

// HandleAPIError maps an error kind onto a status code and envelope.
// Validation errors carry their field; internal errors are logged, not echoed.
func HandleAPIError(c *gin.Context, err error) {
	var ce *apperrors.CustomError
	message := err.Error()
	field := ""
	if errors.As(err, &ce) {
		field = ce.Field
	}

	switch {
	case errors.Is(err, apperrors.ErrValidationFailed):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message).WithField(field)
		c.JSON(http.StatusBadRequest, dto.NewAPIError(detail))
	case errors.Is(err, apperrors.ErrResourceNotFound):
		detail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message)
		if ce != nil && ce.Details != nil {
			detail = detail.WithDetails(ce.Details)
		}
		c.JSON(http.StatusNotFound, dto.NewAPIError(detail))
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.NewAPIError(dto.NewErrorDetail(dto.ErrorCodeConflict, message)))
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, dto.NewAPIError(dto.NewErrorDetail(dto.ErrorCodeUnauthorized, message)))
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, dto.NewAPIError(dto.NewErrorDetail(dto.ErrorCodeForbidden, message)))
	default:
		logger.Error().Err(err).
			Str("path", c.FullPath()).
			Str("requestID", c.GetString(RequestIDKey)).
			Msg("Unhandled error in request")
		detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)
		c.JSON(http.StatusInternalServerError, dto.NewAPIError(detail))
	}
}
