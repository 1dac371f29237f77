package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediconnect/internal/domain"
	"mediconnect/internal/service"
)

const (
	currentPatientKey = "current_patient"
	// SessionCookieName es la cookie que abre el login con proveedor.
	SessionCookieName = "mediconnect_session"
)

// AuthGate resuelve la identidad desde bearer token o sesión de servidor.
type AuthGate struct {
	logger   *zap.Logger
	patients *service.PatientService
	sessions service.SessionStore
}

func NewAuthGate(logger *zap.Logger, patients *service.PatientService, sessions service.SessionStore) *AuthGate {
	return &AuthGate{
		logger:   logger,
		patients: patients,
		sessions: sessions,
	}
}

// Require rechaza con 401 cuando no hay identidad válida.
// El bearer tiene prioridad sobre la sesión.
func (g *AuthGate) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		patient, err := g.resolve(c)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidToken):
			g.logger.Debug("auth rejected", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
			return
		case errors.Is(err, service.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		default:
			g.logger.Error("auth resolution failed", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(currentPatientKey, patient)
		c.Next()
	}
}

func (g *AuthGate) resolve(c *gin.Context) (domain.Patient, error) {
	ctx := c.Request.Context()
	if token, ok := bearerToken(c); ok {
		return g.patients.Authenticate(ctx, token)
	}
	if g.sessions == nil {
		return domain.Patient{}, service.ErrUnauthorized
	}
	sid, err := c.Cookie(SessionCookieName)
	if err != nil || sid == "" {
		return domain.Patient{}, service.ErrUnauthorized
	}
	patientID, found, err := g.sessions.Resolve(ctx, sid)
	if err != nil {
		return domain.Patient{}, fmt.Errorf("resolve session: %w", err)
	}
	if !found {
		return domain.Patient{}, service.ErrUnauthorized
	}
	return g.patients.Get(ctx, patientID)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
		return "", false
	}
	return strings.TrimSpace(header[len("Bearer "):]), true
}

// CurrentPatient obtiene el paciente autenticado desde el contexto.
func CurrentPatient(c *gin.Context) (domain.Patient, bool) {
	val, ok := c.Get(currentPatientKey)
	if !ok {
		return domain.Patient{}, false
	}
	patient, ok := val.(domain.Patient)
	return patient, ok
}
