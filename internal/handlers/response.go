package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainagg "github.com/petalframe/catalog-backend/internal/domain/aggregates"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAggregateError maps aggregate error codes onto HTTP statuses so
// handlers never inspect errors themselves.
func RespondAggregateError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	switch code {
	case domainagg.CodeValidation:
		RespondError(c, http.StatusBadRequest, string(code), err)
	case domainagg.CodeNotFound:
		RespondError(c, http.StatusNotFound, string(code), err)
	case domainagg.CodeConflict:
		RespondError(c, http.StatusConflict, string(code), err)
	case domainagg.CodeInvariantViolation, domainagg.CodePreconditionFailed:
		RespondError(c, http.StatusUnprocessableEntity, string(code), err)
	case domainagg.CodeRetryable:
		RespondError(c, http.StatusServiceUnavailable, string(code), err)
	default:
		RespondError(c, http.StatusInternalServerError, string(domainagg.CodeInternal), err)
	}
}
