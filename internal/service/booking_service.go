package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"mediconnect/internal/domain"
	"mediconnect/internal/events"
	"mediconnect/internal/repository"
)

type BookingService struct {
	logger    *zap.Logger
	bookings  repository.BookingRepository
	tests     *LabTestService
	publisher events.Publisher
	recorder  Recorder
	now       func() time.Time
}

func NewBookingService(logger *zap.Logger, bookings repository.BookingRepository, tests *LabTestService, publisher events.Publisher, recorder Recorder) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &BookingService{
		logger:    logger,
		bookings:  bookings,
		tests:     tests,
		publisher: publisher,
		recorder:  recorderOrNop(recorder),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	if now != nil {
		s.now = now
	}
	return s
}

type CreateBookingInput struct {
	PatientID string
	TestID    string
	Date      time.Time
}

// Create registra una reserva futura del paciente autenticado.
func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (domain.Booking, error) {
	testID := strings.TrimSpace(input.TestID)
	now := s.now()

	var fields []string
	if testID == "" {
		fields = append(fields, "test_id is required")
	}
	if input.Date.IsZero() {
		fields = append(fields, "date is required")
	} else if !input.Date.After(now) {
		fields = append(fields, "date must be in the future")
	}
	if len(fields) > 0 {
		return domain.Booking{}, newValidationError(fields...)
	}
	if strings.TrimSpace(input.PatientID) == "" {
		return domain.Booking{}, ErrUnauthorized
	}

	test, err := s.tests.Get(ctx, testID)
	if err != nil {
		return domain.Booking{}, err
	}

	booking := domain.Booking{
		ID:        uuid.NewString(),
		PatientID: input.PatientID,
		TestID:    test.ID,
		Date:      input.Date.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return domain.Booking{}, err
	}
	s.recorder.BookingCreated()

	event := events.BookingCreated{
		BookingID:  booking.ID,
		PatientID:  booking.PatientID,
		TestID:     test.ID,
		TestName:   test.Name,
		Date:       booking.Date,
		OccurredAt: now,
	}
	if err := s.publisher.PublishBookingCreated(ctx, event); err != nil {
		s.recorder.EventPublishFailed()
		s.logger.Warn("booking event not published", zap.String("booking_id", booking.ID), zap.Error(err))
	}
	return booking, nil
}

// ListForPatient devuelve las reservas del paciente solicitado.
// Un paciente solo puede listar sus propias reservas.
func (s *BookingService) ListForPatient(ctx context.Context, callerID, patientID string) ([]domain.BookingWithTest, error) {
	if callerID == "" || callerID != patientID {
		return nil, ErrForbidden
	}
	return s.bookings.ListByPatient(ctx, patientID)
}

// GetOwned devuelve una reserva con su estudio si pertenece al paciente.
func (s *BookingService) GetOwned(ctx context.Context, callerID, bookingID string) (domain.BookingWithTest, error) {
	if strings.TrimSpace(bookingID) == "" {
		return domain.BookingWithTest{}, newValidationError("booking_id is required")
	}
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.BookingWithTest{}, ErrNotFound
		}
		return domain.BookingWithTest{}, err
	}
	if booking.PatientID != callerID {
		return domain.BookingWithTest{}, ErrForbidden
	}
	result := domain.BookingWithTest{Booking: booking}
	test, err := s.tests.Get(ctx, booking.TestID)
	switch {
	case err == nil:
		result.Test = &test
	case !errors.Is(err, ErrNotFound):
		return domain.BookingWithTest{}, err
	}
	return result, nil
}
