package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/validator"
)

// Client facing messages.
const (
	msgInvalidRequest   = "Invalid request"
	msgUnknownService   = "Unknown service"
	msgUnauthorized     = "Unauthorized"
	msgTooManyRequests  = "Too many requests"
	msgBodyTooLarge     = "Request body too large"
	msgInternal         = "Internal server error"
	msgUpstreamFailed   = "Upstream request failed"
	msgInvalidGoogleDNS = "Invalid payload for Google DNS API"
	msgDatabaseError    = "Database error occurred"
	msgInvalidPayload   = "Invalid payload"
	msgRecordNotFound   = "Record not found"
	msgInvalidLogin     = "Invalid credentials"

	msgOnboardingSaved = "Data saved successfully"
	msgContactSaved    = "Contact form submitted successfully"
	msgConversionSaved = "Conversion data saved successfully"
	msgRecordDeleted   = "Record deleted successfully"
)

// errorReply is the {"error": ...} shape used by dispatch and relay failures.
func errorReply(status int, msg string) Reply {
	return Reply{Status: status, JSON: gin.H{"error": msg}}
}

// errorReplyFor maps a dispatch, auth or relay error onto the {"error": ...} shape.
// Transport failures toward a downstream service answer 500.
func errorReplyFor(err error) Reply {
	switch {
	case errors.Is(err, apperrors.ErrInvalidEnvelope), apperrors.IsBadRequestError(err):
		return errorReply(http.StatusBadRequest, msgInvalidRequest)
	case errors.Is(err, apperrors.ErrUnknownService):
		return errorReply(http.StatusBadRequest, msgUnknownService)
	case apperrors.IsUnauthorizedError(err):
		return errorReply(http.StatusUnauthorized, msgUnauthorized)
	case apperrors.IsRateLimitedError(err):
		return errorReply(http.StatusTooManyRequests, msgTooManyRequests)
	case apperrors.IsUpstreamError(err), apperrors.IsTimeoutError(err):
		return errorReply(http.StatusInternalServerError, msgUpstreamFailed)
	default:
		return errorReply(http.StatusInternalServerError, msgInternal)
	}
}

// failureReply is the {"success": false, "message": ...} shape used by database services.
func failureReply(status int, msg string) Reply {
	return Reply{Status: status, JSON: gin.H{"success": false, "message": msg}}
}

func successReply(body gin.H) Reply {
	body["success"] = true
	return Reply{Status: http.StatusOK, JSON: body}
}

// storeErrorReply maps a service error onto a response. Internal error text never reaches the client.
func storeErrorReply(err error) Reply {
	var fe apperrors.FieldErrors
	switch {
	case errors.As(err, &fe):
		return failureReply(http.StatusBadRequest, validator.Summary(fe))
	case apperrors.IsValidationError(err), apperrors.IsBadRequestError(err):
		return failureReply(http.StatusBadRequest, msgInvalidPayload)
	case apperrors.IsNotFoundError(err):
		return failureReply(http.StatusNotFound, msgRecordNotFound)
	default:
		return failureReply(http.StatusInternalServerError, msgDatabaseError)
	}
}
