package helper

import (
	"errors"
	"net/http"

	. "todolists/internal/adapter/http/validation"
	"todolists/internal/core/domain"
	"todolists/internal/core/model/response"

	"github.com/gin-gonic/gin"
)

func SendSuccess(c *gin.Context, statusCode int, data any, message ...string) {
	body := response.SuccessResponse{Data: data}

	if len(message) > 0 && message[0] != "" {
		body.Message = message[0]
	}

	c.JSON(statusCode, body)
}

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError, details ...any) {
	body := response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		body.Error.Details = details[0]
	}

	c.JSON(statusCode, body)
}

func sendFieldError(c *gin.Context, statusCode int, code, field, message string, details ...any) {
	SendError(c, statusCode, code, []response.ValidationError{{Field: field, Message: message}}, details...)
}

func SendValidationError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", FormatValidationErrors(err))
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	sendFieldError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "server", message, details...)
}

func SendUnauthorizedError(c *gin.Context, message string) {
	sendFieldError(c, http.StatusUnauthorized, "UNAUTHORIZED", "auth", message)
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	sendFieldError(c, http.StatusBadRequest, "BAD_REQUEST", field, message)
}

func SendNotFoundError(c *gin.Context, message string) {
	sendFieldError(c, http.StatusNotFound, "NOT_FOUND", "resource", message)
}

// SendDomainError maps core sentinel errors to HTTP responses. Anything it
// does not recognise is reported as an internal error with message.
func SendDomainError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrListNotFound), errors.Is(err, domain.ErrItemNotFound):
		SendNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidJobInput):
		SendBadRequestError(c, "input", err.Error())
	default:
		if validationErrors := FormatValidationErrors(err); len(validationErrors) > 0 {
			SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErrors)
			return
		}

		SendInternalError(c, message)
	}
}
