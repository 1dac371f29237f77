package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediconnect/internal/service"
)

const (
	msgInvalidCredentials = "invalid email or password"
	msgNotAuthenticated   = "not authenticated"
)

// respondServiceError traduce errores de servicio a status y cuerpo JSON.
func respondServiceError(c *gin.Context, logger *zap.Logger, action string, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validErr.Fields})
		return
	}
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Message})
		return
	}

	switch {
	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "account temporarily locked"})
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		logger.Error(action+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// respondLoginError oculta la diferencia entre email inexistente y contraseña incorrecta.
func respondLoginError(c *gin.Context, logger *zap.Logger, err error) {
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
		return
	}
	respondServiceError(c, logger, "login", err)
}

func bindJSON(c *gin.Context, logger *zap.Logger, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		logger.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}
