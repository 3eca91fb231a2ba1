package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"community-server/apperr"
	"community-server/logging"
)

// AbortWithError writes the response for err and stops the chain.
// Internal failures are logged; their detail never reaches the client.
func AbortWithError(c *gin.Context, log logging.Logger, err error) {
	status, body := apperr.Response(err)
	if status >= http.StatusInternalServerError {
		log.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"err", err,
		)
	}
	c.AbortWithStatusJSON(status, body)
}
