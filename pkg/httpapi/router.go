package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine serving the query endpoints plus the
// /status health endpoint, gated by a readiness middleware that rejects
// requests with 503 until the registry's workers have signaled ready —
// the HTTP layer must not accept traffic until every worker has done
// so. /status itself is registered ahead of the gate: a health probe
// needs to observe "not ready yet" rather than be blocked by it.
func NewRouter(h *Handler, ready func() bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
	}))
	r.GET("/status", h.Status)

	r.Use(readinessGate(ready))

	r.GET("/autnum/:asn", h.AutNum)
	r.GET("/prefix_json/*prefix", h.PrefixJSON)
	r.GET("/exact_prefix_json/*prefix", h.ExactPrefixJSON)

	return r
}

// readinessGate rejects requests with 503 while ready reports false.
func readinessGate(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil && !ready() {
			c.String(http.StatusServiceUnavailable, "service not ready")
			c.Abort()
			return
		}
		c.Next()
	}
}
