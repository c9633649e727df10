// Package middleware holds console-specific gin middleware.
package middleware

import (
	"net/http"

	apphttp "collections_console/internal/http"
	"collections_console/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// SessionGuard rejects requests while no agent session is open. The
// ledger re-checks the bearer token on every call; this guard only
// short-circuits requests that cannot possibly succeed.
func SessionGuard(sess apphttp.TokenSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sess.Token(); !ok {
			httpkit.Error(c, http.StatusUnauthorized, "no active session", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
