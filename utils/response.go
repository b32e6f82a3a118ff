package utils

import (
	"errors"

	"github.com/gin-gonic/gin"

	"yotereparo-backend/errs"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code   string           `json:"code,omitempty"`
	Error  string           `json:"error"`
	Errors []errs.Violation `json:"errors,omitempty"`
}

// RespondWithError aborts the request with a plain message.
func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// RespondWithFailure renders err using its code and status. Errors that are
// not an errs.Failure are reported as an opaque 500.
func RespondWithFailure(c *gin.Context, err error) {
	var f errs.Failure
	if !errors.As(err, &f) {
		f = &errs.SystemFailure{Cause: err}
	}

	body := ErrorResponse{Code: f.Code(), Error: f.Error()}
	var vf *errs.ValidationFailure
	if errors.As(f, &vf) {
		body.Error = "Invalid input"
		body.Errors = vf.Violations
	}
	c.AbortWithStatusJSON(f.HTTPStatus(), body)
}
