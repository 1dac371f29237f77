package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediconnect/internal/service"
)

// BookingHandler expone reservas y reportes del paciente autenticado.
type BookingHandler struct {
	logger   *zap.Logger
	bookings *service.BookingService
	reports  *service.ReportService
}

func NewBookingHandler(logger *zap.Logger, bookings *service.BookingService, reports *service.ReportService) *BookingHandler {
	return &BookingHandler{
		logger:   logger,
		bookings: bookings,
		reports:  reports,
	}
}

// Create maneja POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	patient, ok := CurrentPatient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return
	}
	var req struct {
		TestID string `json:"test_id"`
		Date   string `json:"date"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}

	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := parseBookingDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": []string{"date must be RFC3339 or YYYY-MM-DD"}})
			return
		}
		date = parsed
	}

	booking, err := h.bookings.Create(c.Request.Context(), service.CreateBookingInput{
		PatientID: patient.ID,
		TestID:    req.TestID,
		Date:      date,
	})
	if err != nil {
		respondServiceError(c, h.logger, "create booking", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// List maneja GET /api/bookings/:patientId.
func (h *BookingHandler) List(c *gin.Context) {
	patient, ok := CurrentPatient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return
	}
	bookings, err := h.bookings.ListForPatient(c.Request.Context(), patient.ID, c.Param("patientId"))
	if err != nil {
		respondServiceError(c, h.logger, "list bookings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// DownloadReport maneja GET /api/bookings/report/download?booking_id=.
func (h *BookingHandler) DownloadReport(c *gin.Context) {
	patient, ok := CurrentPatient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return
	}
	file, err := h.reports.Generate(c.Request.Context(), patient.ID, c.Query("booking_id"))
	if err != nil {
		respondServiceError(c, h.logger, "generate report", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", file.Data)
}

// EmailReport maneja POST /api/bookings/report/email.
func (h *BookingHandler) EmailReport(c *gin.Context) {
	patient, ok := CurrentPatient(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return
	}
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	if err := h.reports.Email(c.Request.Context(), patient.ID, req.BookingID); err != nil {
		respondServiceError(c, h.logger, "email report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report sent to " + patient.Email})
}

func parseBookingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
