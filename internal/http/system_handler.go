package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger verifica una dependencia externa.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemHandler struct {
	logger *zap.Logger
	db     Pinger
}

func NewSystemHandler(logger *zap.Logger, db Pinger) *SystemHandler {
	return &SystemHandler{logger: logger, db: db}
}

// Root maneja GET /.
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "mediconnect", "message": "MediConnect API is running"})
}

// Healthz maneja GET /healthz.
func (h *SystemHandler) Healthz(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
