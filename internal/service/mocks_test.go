package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"mediconnect/internal/domain"
	"mediconnect/internal/repository"
)

type mockPatientRepo struct {
	mu         sync.Mutex
	byID       map[string]domain.Patient
	byEmail    map[string]string
	byGoogleID map[string]string
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{
		byID:       make(map[string]domain.Patient),
		byEmail:    make(map[string]string),
		byGoogleID: make(map[string]string),
	}
}

func (m *mockPatientRepo) Create(_ context.Context, p domain.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[p.Email]; ok {
		return repository.ErrDuplicate
	}
	if p.GoogleID != "" {
		if _, ok := m.byGoogleID[p.GoogleID]; ok {
			return repository.ErrDuplicate
		}
		m.byGoogleID[p.GoogleID] = p.ID
	}
	m.byID[p.ID] = p
	m.byEmail[p.Email] = p.ID
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id string) (domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.Patient{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockPatientRepo) GetByEmail(ctx context.Context, email string) (domain.Patient, error) {
	m.mu.Lock()
	id, ok := m.byEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.Patient{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *mockPatientRepo) GetByGoogleID(ctx context.Context, googleID string) (domain.Patient, error) {
	m.mu.Lock()
	id, ok := m.byGoogleID[googleID]
	m.mu.Unlock()
	if !ok {
		return domain.Patient{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *mockPatientRepo) LinkGoogle(_ context.Context, id, googleID, avatar string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if owner, ok := m.byGoogleID[googleID]; ok && owner != id {
		return repository.ErrDuplicate
	}
	p.GoogleID = googleID
	if avatar != "" {
		p.Avatar = avatar
	}
	p.Provider = domain.ProviderGoogle
	p.IsVerified = true
	p.LastLogin = &at
	p.UpdatedAt = at
	m.byID[id] = p
	m.byGoogleID[googleID] = id
	return nil
}

func (m *mockPatientRepo) UpdateProfile(_ context.Context, id, name, email string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if owner, ok := m.byEmail[email]; ok && owner != id {
		return repository.ErrDuplicate
	}
	delete(m.byEmail, p.Email)
	p.Name = name
	p.Email = email
	p.UpdatedAt = at
	m.byID[id] = p
	m.byEmail[email] = id
	return nil
}

// RegisterFailedLogin reproduce la semántica del UPDATE condicional.
func (m *mockPatientRepo) RegisterFailedLogin(_ context.Context, id string, now time.Time, maxAttempts int, lockFor time.Duration) (repository.LoginAttemptState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return repository.LoginAttemptState{}, pgx.ErrNoRows
	}
	switch {
	case p.LockUntil != nil && !now.Before(*p.LockUntil):
		p.LoginAttempts = 1
		p.LockUntil = nil
	default:
		p.LoginAttempts++
		if p.LockUntil == nil && p.LoginAttempts >= maxAttempts {
			until := now.Add(lockFor)
			p.LockUntil = &until
		}
	}
	p.UpdatedAt = now
	m.byID[id] = p
	return repository.LoginAttemptState{Attempts: p.LoginAttempts, LockUntil: p.LockUntil}, nil
}

func (m *mockPatientRepo) RecordSuccessfulLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.LoginAttempts = 0
	p.LockUntil = nil
	p.LastLogin = &at
	m.byID[id] = p
	return nil
}

func (m *mockPatientRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type mockLabTestRepo struct {
	tests     []domain.LabTest
	insertErr error
	inserts   int
}

func (m *mockLabTestRepo) List(_ context.Context) ([]domain.LabTest, error) {
	return append([]domain.LabTest(nil), m.tests...), nil
}

func (m *mockLabTestRepo) GetByID(_ context.Context, id string) (domain.LabTest, error) {
	for _, t := range m.tests {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.LabTest{}, pgx.ErrNoRows
}

func (m *mockLabTestRepo) InsertMany(_ context.Context, tests []domain.LabTest) error {
	m.inserts++
	if m.insertErr != nil {
		return m.insertErr
	}
	m.tests = append(m.tests, tests...)
	return nil
}

type mockBookingRepo struct {
	bookings map[string]domain.Booking
	tests    *mockLabTestRepo
}

func newMockBookingRepo(tests *mockLabTestRepo) *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]domain.Booking), tests: tests}
}

func (m *mockBookingRepo) Create(_ context.Context, b domain.Booking) error {
	m.bookings[b.ID] = b
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *mockBookingRepo) ListByPatient(ctx context.Context, patientID string) ([]domain.BookingWithTest, error) {
	out := make([]domain.BookingWithTest, 0)
	for _, b := range m.bookings {
		if b.PatientID != patientID {
			continue
		}
		item := domain.BookingWithTest{Booking: b}
		if t, err := m.tests.GetByID(ctx, b.TestID); err == nil {
			item.Test = &t
		}
		out = append(out, item)
	}
	return out, nil
}

type recordingRecorder struct {
	logins   map[string]int
	lockouts int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{logins: make(map[string]int)}
}

func (r *recordingRecorder) LoginAttempt(outcome string) { r.logins[outcome]++ }
func (r *recordingRecorder) AccountLocked()              { r.lockouts++ }
func (r *recordingRecorder) PatientRegistered()          {}
func (r *recordingRecorder) BookingCreated()             {}
func (r *recordingRecorder) ReportGenerated(string)      {}
func (r *recordingRecorder) EventPublishFailed()         {}
