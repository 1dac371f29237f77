package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediconnect/internal/domain"
	"mediconnect/internal/oauth"
	"mediconnect/internal/service"
)

// Códigos de motivo enviados al cliente cuando falla el flujo OAuth.
const (
	reasonStateInvalid   = "oauth_state_invalid"
	reasonOAuthFailed    = "oauth_failed"
	reasonCallbackFailed = "oauth_callback_failed"
)

type AuthHandlerConfig struct {
	ClientURL    string
	SessionTTL   time.Duration
	SecureCookie bool
}

// AuthHandler maneja el puente OAuth y la sesión de servidor.
type AuthHandler struct {
	logger   *zap.Logger
	patients *service.PatientService
	provider oauth.Provider
	states   service.StateStore
	sessions service.SessionStore
	cfg      AuthHandlerConfig
}

// NewAuthHandler acepta provider nil cuando Google no está configurado.
func NewAuthHandler(logger *zap.Logger, patients *service.PatientService, provider oauth.Provider, states service.StateStore, sessions service.SessionStore, cfg AuthHandlerConfig) *AuthHandler {
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &AuthHandler{
		logger:   logger,
		patients: patients,
		provider: provider,
		states:   states,
		sessions: sessions,
		cfg:      cfg,
	}
}

// GoogleStart maneja GET /api/auth/google.
func (h *AuthHandler) GoogleStart(c *gin.Context) {
	if h.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "oauth not configured"})
		return
	}
	state, err := h.states.Issue(c.Request.Context())
	if err != nil {
		h.logger.Error("oauth state issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// GoogleCallback maneja GET /api/auth/google/callback.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "oauth not configured"})
		return
	}
	ctx := c.Request.Context()

	ok, err := h.states.Consume(ctx, c.Query("state"))
	if err != nil || !ok {
		h.logger.Warn("oauth state rejected", zap.Error(err))
		h.redirectFailure(c, reasonStateInvalid)
		return
	}
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Warn("oauth provider returned error", zap.String("error", providerErr))
		h.redirectFailure(c, reasonOAuthFailed)
		return
	}

	profile, err := h.provider.Exchange(ctx, c.Query("code"))
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.Error(err))
		h.redirectFailure(c, reasonOAuthFailed)
		return
	}

	patient, err := h.patients.ResolveExternal(ctx, profile)
	if err != nil {
		h.logger.Error("oauth account resolution failed", zap.Error(err))
		h.redirectFailure(c, reasonCallbackFailed)
		return
	}

	token, err := h.patients.IssueToken(patient)
	if err != nil {
		h.logger.Error("oauth token issue failed", zap.Error(err))
		h.redirectFailure(c, reasonCallbackFailed)
		return
	}

	if h.sessions != nil {
		sid, err := h.sessions.Create(ctx, patient.ID, h.cfg.SessionTTL)
		if err != nil {
			h.logger.Warn("session create failed", zap.Error(err))
		} else {
			h.setSessionCookie(c, sid, int(h.cfg.SessionTTL.Seconds()))
		}
	}

	snippet, err := json.Marshal(patient.Snippet())
	if err != nil {
		h.redirectFailure(c, reasonCallbackFailed)
		return
	}
	q := url.Values{}
	q.Set("token", token)
	q.Set("user", string(snippet))
	c.Redirect(http.StatusFound, h.cfg.ClientURL+"/auth/callback?"+q.Encode())
}

// CurrentUser maneja GET /api/auth/user.
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	patient, ok := CurrentPatient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": patient})
}

type providerInfo struct {
	Name        domain.Provider `json:"name"`
	DisplayName string          `json:"display_name"`
	AuthURL     string          `json:"auth_url"`
	Enabled     bool            `json:"enabled"`
}

// Providers maneja GET /api/auth/providers.
func (h *AuthHandler) Providers(c *gin.Context) {
	providers := make([]providerInfo, 0, 1)
	if h.provider != nil {
		name := h.provider.Name()
		providers = append(providers, providerInfo{
			Name:        name,
			DisplayName: name.DisplayName(),
			AuthURL:     "/api/auth/" + string(name),
			Enabled:     true,
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

// Logout maneja GET /api/auth/logout. Solo cierra la sesión de servidor;
// los bearer tokens siguen vigentes hasta expirar.
func (h *AuthHandler) Logout(c *gin.Context) {
	sid, err := c.Cookie(SessionCookieName)
	if err == nil && sid != "" && h.sessions != nil {
		if err := h.sessions.Destroy(c.Request.Context(), sid); err != nil {
			h.logger.Error("session destroy failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
	}
	if !errors.Is(err, http.ErrNoCookie) {
		h.setSessionCookie(c, "", -1)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) redirectFailure(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, h.cfg.ClientURL+"/login?error="+url.QueryEscape(reason))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, value, maxAge, "/", "", h.cfg.SecureCookie, true)
}
