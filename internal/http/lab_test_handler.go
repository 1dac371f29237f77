package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediconnect/internal/service"
)

type LabTestHandler struct {
	logger *zap.Logger
	tests  *service.LabTestService
}

func NewLabTestHandler(logger *zap.Logger, tests *service.LabTestService) *LabTestHandler {
	return &LabTestHandler{logger: logger, tests: tests}
}

// List maneja GET /api/tests.
func (h *LabTestHandler) List(c *gin.Context) {
	tests, err := h.tests.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "list tests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tests": tests})
}
