package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediconnect/internal/service"
)

// PatientHandler mantiene dependencias para endpoints de pacientes.
type PatientHandler struct {
	logger   *zap.Logger
	patients *service.PatientService
}

func NewPatientHandler(logger *zap.Logger, patients *service.PatientService) *PatientHandler {
	return &PatientHandler{
		logger:   logger,
		patients: patients,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register maneja POST /api/patients/register.
func (h *PatientHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	res, err := h.patients.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, h.logger, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"patient": res.Patient, "token": res.Token})
}

// Login maneja POST /api/patients/login y POST /api/auth/local.
func (h *PatientHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	res, err := h.patients.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondLoginError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"patient": res.Patient, "token": res.Token})
}

// GetProfile maneja GET /api/patients/profile.
func (h *PatientHandler) GetProfile(c *gin.Context) {
	patient, ok := CurrentPatient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": patient})
}

// UpdateProfile maneja PUT /api/patients/profile.
func (h *PatientHandler) UpdateProfile(c *gin.Context) {
	current, ok := CurrentPatient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return
	}
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}

	patient, err := h.patients.UpdateProfile(c.Request.Context(), current.ID, service.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respondServiceError(c, h.logger, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": patient})
}
