package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mediconnect/internal/email"
)

type captureSender struct {
	sent []email.Message
	err  error
}

func (s *captureSender) Send(_ context.Context, m email.Message) error {
	s.sent = append(s.sent, m)
	return s.err
}

func (s *captureSender) Enabled() bool { return true }

type reportFixture struct {
	svc       *ReportService
	sender    *captureSender
	patientID string
	bookingID string
}

func newReportFixture(t *testing.T, sender email.Sender) reportFixture {
	t.Helper()
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	patients := NewPatientService(zap.NewNop(), newMockPatientRepo(), NewTokenService("secret", 0), PatientServiceOptions{BcryptCost: bcrypt.MinCost}).WithClock(clock.Now)
	reg, err := patients.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	bookings, _, _, _ := newBookingFixture()
	b, err := bookings.Create(ctx, CreateBookingInput{PatientID: reg.Patient.ID, TestID: "t1", Date: time.Now().Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	svc := NewReportService(zap.NewNop(), bookings, patients, sender, nil)
	capture, _ := sender.(*captureSender)
	return reportFixture{svc: svc, sender: capture, patientID: reg.Patient.ID, bookingID: b.ID}
}

func TestReportService_Generate(t *testing.T) {
	f := newReportFixture(t, &captureSender{})

	file, err := f.svc.Generate(context.Background(), f.patientID, f.bookingID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if file.Filename != "Lab_Report_"+f.bookingID+".pdf" {
		t.Fatalf("unexpected filename %q", file.Filename)
	}
	if !bytes.HasPrefix(file.Data, []byte("%PDF-")) {
		t.Fatalf("expected pdf bytes")
	}

	if _, err := f.svc.Generate(context.Background(), "someone-else", f.bookingID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReportService_Email(t *testing.T) {
	f := newReportFixture(t, &captureSender{})

	if err := f.svc.Email(context.Background(), f.patientID, f.bookingID); err != nil {
		t.Fatalf("email: %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(f.sender.sent))
	}
	msg := f.sender.sent[0]
	if msg.To != "alice@x.com" || len(msg.Attachments) != 1 {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestReportService_EmailUnavailable(t *testing.T) {
	f := newReportFixture(t, email.NewDisabledSender("smtp not configured"))
	if err := f.svc.Email(context.Background(), f.patientID, f.bookingID); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
