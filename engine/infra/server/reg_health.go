package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/version"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

const (
	statusHealthy  = "healthy"
	statusNotReady = "not_ready"
)

// healthHandler reports readiness; the service is ready when the store answers a ping.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()
	ready := true
	status := statusHealthy
	store := gin.H{"ready": true}
	if err := s.store.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("Readiness probe failed", "error", err)
		ready = false
		status = statusNotReady
		store = gin.H{"ready": false, "error": err.Error()}
	}
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"data": gin.H{
			"status":  status,
			"version": version.Version,
			"ready":   ready,
			"store":   store,
		},
		"message": "Success",
	})
}
