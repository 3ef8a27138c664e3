// Package handlers defines the HTTP error codes of the API and the mapping
// from service errors onto them.
//
// Codes are lowercase snake_case. Clients branch on the code, never on the
// message.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "missing_birth_time",
//	  "message": "birth time is required"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-horoscope-backend/internal/http/middleware"
	"github.com/tbourn/go-horoscope-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeGenerationFailed = "generation_failed"
	ErrCodeMissingBirthTime = "missing_birth_time"
)

// failService translates a service error into the response envelope.
// Unrecognized errors become a generic 500; their detail is only logged.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownSign):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrUnknownSign.Error())
	case errors.Is(err, services.ErrHistoryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrHistoryNotFound.Error())
	case errors.Is(err, services.ErrGenerationFailed):
		middleware.LoggerFrom(c).Warn().Err(err).Msg("generation failed")
		fail(c, http.StatusServiceUnavailable, ErrCodeGenerationFailed, services.ErrGenerationFailed.Error())
	case errors.Is(err, services.ErrMissingBirthTime):
		fail(c, http.StatusUnprocessableEntity, ErrCodeMissingBirthTime, services.ErrMissingBirthTime.Error())
	case errors.Is(err, services.ErrInvalidBirthDate):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidBirthDate.Error())
	case errors.Is(err, services.ErrInvalidBirthTime):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidBirthTime.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
