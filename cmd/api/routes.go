package main

import (
	"database/sql"
	"net/http"
	"time"

	"bookline/internal/session"
	"bookline/internal/telephony"
	"bookline/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, webhook telephony.WebhookHandler, db *sql.DB, memSessions *session.MemoryStore) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "err": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions_in_memory": memSessions.Len()})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	r.POST(voicePath, webhook.HandleVoiceTurn)
	r.POST(collectPath, webhook.HandleVoiceTurn)
}
