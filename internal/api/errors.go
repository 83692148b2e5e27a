package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chemviz/internal/errors"
)

var statusByCode = map[string]int{
	errors.CodeMissingColumns:     http.StatusBadRequest,
	errors.CodeInvalidFormat:      http.StatusBadRequest,
	errors.CodeValidationError:    http.StatusBadRequest,
	errors.CodeUnauthorized:       http.StatusUnauthorized,
	errors.CodeNotFound:           http.StatusNotFound,
	errors.CodeConflict:           http.StatusConflict,
	errors.CodePersistenceFailure: http.StatusInternalServerError,
	errors.CodeInternalError:      http.StatusInternalServerError,
}

// statusFor maps an error's code to an HTTP status
func statusFor(err error) int {
	if status, ok := statusByCode[errors.GetCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// publicMessage is the client-facing text for err; unclassified errors are not echoed
func publicMessage(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Code != errors.CodeInternalError {
		return appErr.Message
	}
	return "Internal server error."
}

// respondError writes {"error": ...} with the status for err.
// Missing-column errors also list the absent fields.
func respondError(c *gin.Context, err error) {
	body := gin.H{"error": publicMessage(err)}
	if fields := errors.GetFields(err); len(fields) > 0 {
		body["missing_columns"] = fields
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}
