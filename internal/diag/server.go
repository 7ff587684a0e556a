// Package diag exposes the client's runtime state over a small HTTP server:
// health, Prometheus metrics, and a live session snapshot.
package diag

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger/internal/observability"
	"messenger/internal/roster"
	"messenger/internal/telemetry"
)

// Snapshot is the live view served at /debug/session.
type Snapshot struct {
	State               string         `json:"state"`
	UserID              int            `json:"user_id"`
	OnlineCount         int            `json:"online_count"`
	Conversations       map[int]int    `json:"conversations"`
	UnreadNotifications int            `json:"unread_notifications"`
	UnreadMessages      int            `json:"unread_messages"`
	Peers               []roster.Entry `json:"peers,omitempty"`
}

// SnapshotFunc assembles a Snapshot from the live components.
type SnapshotFunc func() Snapshot

// NewRouter builds the diagnostics router.
func NewRouter(snapshot SnapshotFunc, emitter *telemetry.AuditEmitter, debug bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("messenger"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/debug/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, snapshot())
	})

	registerDebugRoutes(router, emitter, debug)
	return router
}

// registerDebugRoutes wires debug-only endpoints.
func registerDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), telemetry.LevelInfo, "audit test", nil)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
