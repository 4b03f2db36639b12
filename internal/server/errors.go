package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	badgeappdomain "github.com/smallbiznis/meritup/internal/badgeapp/domain"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	promotiondomain "github.com/smallbiznis/meritup/internal/promotion/domain"
	templatedomain "github.com/smallbiznis/meritup/internal/template/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Details any               `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	var conflictErr *promotiondomain.ReservationConflictError
	if errors.As(err, &conflictErr) {
		return http.StatusConflict, errorPayload{
			Type:    "reservation_conflict",
			Message: conflictErr.Error(),
			Details: conflictErr,
		}
	}

	var invalidBadgeErr *promotiondomain.InvalidBadgeApplicationError
	if errors.As(err, &invalidBadgeErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_badge_application",
			Message: invalidBadgeErr.Error(),
			Details: invalidBadgeErr,
		}
	}

	var validationFailedErr *promotiondomain.ValidationFailedError
	if errors.As(err, &validationFailedErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "validation_failed",
			Message: "promotion does not satisfy its template",
			Details: validationFailedErr.Report,
		}
	}

	if isInvalidStateError(err) {
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state",
			Message: err.Error(),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, badgeappdomain.ErrInvalidActor),
		errors.Is(err, promotiondomain.ErrInvalidActor):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, badgeappdomain.ErrForbidden),
		errors.Is(err, promotiondomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, badgeappdomain.ErrInvalidID),
		errors.Is(err, badgeappdomain.ErrInvalidFulfillmentDate),
		errors.Is(err, badgeappdomain.ErrEmptyReviewNote),
		errors.Is(err, promotiondomain.ErrInvalidID),
		errors.Is(err, promotiondomain.ErrEmptyReason),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, templatedomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

// isInvalidStateError covers requests that name a real resource in a state
// that does not permit the operation.
func isInvalidStateError(err error) bool {
	var badgeTransitionErr *badgeappdomain.StatusTransitionError
	var promotionTransitionErr *promotiondomain.StatusTransitionError
	switch {
	case errors.As(err, &badgeTransitionErr),
		errors.As(err, &promotionTransitionErr),
		errors.Is(err, badgeappdomain.ErrNotDraft),
		errors.Is(err, badgeappdomain.ErrCatalogBadgeInactive),
		errors.Is(err, promotiondomain.ErrNotDraft),
		errors.Is(err, templatedomain.ErrInactive):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, badgeappdomain.ErrNotFound),
		errors.Is(err, promotiondomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, templatedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "invalid_request" {
		return "request"
	}
	return ""
}

// classifyErrorForLog feeds the request logger so expected domain outcomes
// stay low severity.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "", ""
	}
	return payload.Type, err.Error()
}
