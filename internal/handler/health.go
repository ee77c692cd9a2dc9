package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	DB *gorm.DB
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Liveness check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	if reason := h.dbReady(); reason != "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// dbReady returns an empty string when the database answers a ping.
func (h *HealthHandler) dbReady() string {
	if h.DB == nil {
		return "db not configured"
	}
	pool, err := h.DB.DB()
	if err != nil {
		return "db pool unavailable"
	}
	if err := pool.Ping(); err != nil {
		return "db unreachable"
	}
	return ""
}
