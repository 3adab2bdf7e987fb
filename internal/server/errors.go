package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
)

var errInvalidRequest = errors.New("invalid_request")

// AbortWithError translates a domain error into an HTTP response. State
// machine violations are conflicts, not server faults.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errInvalidRequest) {
		status = http.StatusBadRequest
	} else {
		switch sessiondomain.Classify(err) {
		case sessiondomain.KindNotFound:
			status = http.StatusNotFound
		case sessiondomain.KindInvalidState, sessiondomain.KindConflict:
			status = http.StatusConflict
		case sessiondomain.KindUnavailable:
			status = http.StatusUnprocessableEntity
		case sessiondomain.KindValidation:
			status = http.StatusBadRequest
		}
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the log.
		message = "internal_error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": message}})
}
