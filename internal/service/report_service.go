package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mediconnect/internal/domain"
	"mediconnect/internal/email"
	"mediconnect/internal/report"
)

// ReportFile es un PDF listo para descargar o adjuntar.
type ReportFile struct {
	Filename string
	Data     []byte
}

type ReportService struct {
	logger   *zap.Logger
	bookings *BookingService
	patients *PatientService
	sender   email.Sender
	recorder Recorder
	now      func() time.Time
}

func NewReportService(logger *zap.Logger, bookings *BookingService, patients *PatientService, sender email.Sender, recorder Recorder) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = email.NewDisabledSender("email sender not configured")
	}
	return &ReportService{
		logger:   logger,
		bookings: bookings,
		patients: patients,
		sender:   sender,
		recorder: recorderOrNop(recorder),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate produce el PDF de una reserva del paciente.
func (s *ReportService) Generate(ctx context.Context, patientID, bookingID string) (ReportFile, error) {
	file, _, _, err := s.build(ctx, patientID, bookingID)
	if err != nil {
		return ReportFile{}, err
	}
	s.recorder.ReportGenerated("download")
	return file, nil
}

// Email genera el PDF y lo envía al correo del paciente.
func (s *ReportService) Email(ctx context.Context, patientID, bookingID string) error {
	if !s.sender.Enabled() {
		return ErrUnavailable
	}
	file, patient, testName, err := s.build(ctx, patientID, bookingID)
	if err != nil {
		return err
	}
	msg, err := email.NewReportMessage(email.ReportEmail{
		To:          patient.Email,
		PatientName: patient.Name,
		TestName:    testName,
		BookingID:   bookingID,
		ReportDate:  s.now(),
		PDF:         file.Data,
		Filename:    file.Filename,
	})
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("report email failed", zap.String("booking_id", bookingID), zap.Error(err))
		if errors.Is(err, email.ErrDisabled) {
			return ErrUnavailable
		}
		return err
	}
	s.recorder.ReportGenerated("email")
	s.logger.Info("report emailed", zap.String("booking_id", bookingID))
	return nil
}

func (s *ReportService) build(ctx context.Context, patientID, bookingID string) (ReportFile, domain.Patient, string, error) {
	booking, err := s.bookings.GetOwned(ctx, patientID, bookingID)
	if err != nil {
		return ReportFile{}, domain.Patient{}, "", err
	}
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return ReportFile{}, domain.Patient{}, "", err
	}
	testName := "Unknown test"
	if booking.Test != nil {
		testName = booking.Test.Name
	}
	data, err := report.Generate(report.Data{
		BookingID:   booking.ID,
		PatientName: patient.Name,
		TestName:    testName,
		Date:        booking.Date,
		GeneratedAt: s.now(),
	})
	if err != nil {
		return ReportFile{}, domain.Patient{}, "", err
	}
	return ReportFile{Filename: report.Filename(booking.ID), Data: data}, patient, testName, nil
}
