package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Responses keep the shapes the web frontend already consumes: bare objects
// on success and a "detail" message on failure.

// ErrorDetail describes one failed field of a request.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string        `json:"detail"`
	Errors []ErrorDetail `json:"errors,omitempty"`
}

// MessageResponse is returned by operations that have nothing else to say.
type MessageResponse struct {
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, detail string, details []ErrorDetail) {
	c.JSON(status, ErrorResponse{Detail: detail, Errors: details})
}

// RespondNotFound sends a 404 Not Found error
func RespondNotFound(c *gin.Context, detail string) {
	respondError(c, http.StatusNotFound, detail, nil)
}

// RespondInternalError sends a 500 Internal Server Error
func RespondInternalError(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "Internal server error", nil)
}

// RespondValidationError sends a 422 for a request that failed binding.
func RespondValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ErrorDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ErrorDetail{
				Field:   fieldName(fe),
				Message: validationMessage(fe),
				Code:    fe.Tag(),
			})
		}
		respondError(c, http.StatusUnprocessableEntity, "Validation failed", details)
		return
	}

	respondError(c, http.StatusUnprocessableEntity, "Invalid request: "+err.Error(), nil)
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title":
		return "title"
	case "IsCompleted":
		return "is_completed"
	case "Skip":
		return "skip"
	case "Limit":
		return "limit"
	default:
		return strings.ToLower(fe.Field())
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
