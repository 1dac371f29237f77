package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mediconnect/internal/domain"
	"mediconnect/internal/repository"
)

const (
	minPasswordLength     = 6
	defaultMaxAttempts    = 5
	defaultLockoutWindow  = 2 * time.Hour
	msgPatientExists      = "Patient already exists"
	msgEmailInUse         = "Email is already in use"
	msgUseProviderSignIn  = "An account with this email already exists. Please sign in with Google."
	msgNoLocalCredential  = "This account was created with Google. Please sign in with Google."
	msgPasswordTooShort   = "password must be at least 6 characters long"
	outcomeSuccess        = "success"
	outcomeBadPassword    = "bad_password"
	outcomeLocked         = "locked"
	outcomeUnknownAccount = "unknown_account"
	outcomeProviderOnly   = "provider_only"
)

// PatientService coordina registro, login local y vinculación OAuth.
type PatientService struct {
	logger      *zap.Logger
	patients    repository.PatientRepository
	tokens      *TokenService
	recorder    Recorder
	bcryptCost  int
	maxAttempts int
	lockFor     time.Duration
	now         func() time.Time
}

type PatientServiceOptions struct {
	BcryptCost  int
	MaxAttempts int
	LockFor     time.Duration
	Recorder    Recorder
}

func NewPatientService(logger *zap.Logger, patients repository.PatientRepository, tokens *TokenService, opts PatientServiceOptions) *PatientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.LockFor <= 0 {
		opts.LockFor = defaultLockoutWindow
	}
	return &PatientService{
		logger:      logger,
		patients:    patients,
		tokens:      tokens,
		recorder:    recorderOrNop(opts.Recorder),
		bcryptCost:  opts.BcryptCost,
		maxAttempts: opts.MaxAttempts,
		lockFor:     opts.LockFor,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *PatientService) WithClock(now func() time.Time) *PatientService {
	if now != nil {
		s.now = now
	}
	return s
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult es la identidad autenticada junto a su bearer token.
type AuthResult struct {
	Patient domain.Patient
	Token   string
}

func (s *PatientService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	var fields []string
	if name == "" {
		fields = append(fields, "name is required")
	}
	if email == "" {
		fields = append(fields, "email is required")
	}
	if len(input.Password) < minPasswordLength {
		fields = append(fields, msgPasswordTooShort)
	}
	if len(fields) > 0 {
		return AuthResult{}, newValidationError(fields...)
	}

	existing, err := s.patients.GetByEmail(ctx, email)
	if err == nil {
		if existing.Provider == domain.ProviderGoogle {
			return AuthResult{}, &ConflictError{Message: msgUseProviderSignIn}
		}
		return AuthResult{}, &ConflictError{Message: msgPatientExists}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now()
	patient := domain.Patient{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Provider:     domain.ProviderLocal,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, &ConflictError{Message: msgPatientExists}
		}
		return AuthResult{}, err
	}
	s.recorder.PatientRegistered()

	token, err := s.tokens.Issue(patient.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Patient: patient.Sanitized(), Token: token}, nil
}

// Login valida credenciales locales aplicando la política de bloqueo.
func (s *PatientService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	var fields []string
	if email == "" {
		fields = append(fields, "email is required")
	}
	if password == "" {
		fields = append(fields, "password is required")
	}
	if len(fields) > 0 {
		return AuthResult{}, newValidationError(fields...)
	}

	patient, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.recorder.LoginAttempt(outcomeUnknownAccount)
			return AuthResult{}, ErrNotFound
		}
		return AuthResult{}, err
	}

	if !patient.HasLocalCredential() {
		s.recorder.LoginAttempt(outcomeProviderOnly)
		return AuthResult{}, &ConflictError{Message: msgNoLocalCredential}
	}

	now := s.now()
	if patient.IsLocked(now) {
		s.recorder.LoginAttempt(outcomeLocked)
		s.logger.Warn("login rejected for locked account", zap.String("patient_id", patient.ID))
		return AuthResult{}, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(patient.PasswordHash), []byte(password)); err != nil {
		state, regErr := s.patients.RegisterFailedLogin(ctx, patient.ID, now, s.maxAttempts, s.lockFor)
		if regErr != nil {
			return AuthResult{}, regErr
		}
		s.recorder.LoginAttempt(outcomeBadPassword)
		s.logger.Warn("failed login", zap.String("patient_id", patient.ID), zap.Int("attempts", state.Attempts))
		if state.LockUntil != nil && now.Before(*state.LockUntil) {
			s.recorder.AccountLocked()
			s.logger.Warn("account locked", zap.String("patient_id", patient.ID), zap.Time("lock_until", *state.LockUntil))
		}
		return AuthResult{}, ErrUnauthorized
	}

	if err := s.patients.RecordSuccessfulLogin(ctx, patient.ID, now); err != nil {
		return AuthResult{}, err
	}
	patient.LoginAttempts = 0
	patient.LockUntil = nil
	patient.LastLogin = &now
	s.recorder.LoginAttempt(outcomeSuccess)

	token, err := s.tokens.Issue(patient.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Patient: patient.Sanitized(), Token: token}, nil
}

// Get devuelve el paciente sin hash de contraseña.
func (s *PatientService) Get(ctx context.Context, id string) (domain.Patient, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Patient{}, ErrNotFound
	}
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Patient{}, ErrNotFound
		}
		return domain.Patient{}, err
	}
	return patient.Sanitized(), nil
}

type UpdateProfileInput struct {
	Name  string
	Email string
}

// UpdateProfile aplica nombre y email; los campos vacíos conservan el valor actual.
func (s *PatientService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (domain.Patient, error) {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Patient{}, ErrNotFound
		}
		return domain.Patient{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = patient.Name
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		email = patient.Email
	}

	if email != patient.Email {
		other, err := s.patients.GetByEmail(ctx, email)
		if err == nil && other.ID != patient.ID {
			return domain.Patient{}, &ConflictError{Message: msgEmailInUse}
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return domain.Patient{}, err
		}
	}

	now := s.now()
	if err := s.patients.UpdateProfile(ctx, patient.ID, name, email, now); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Patient{}, &ConflictError{Message: msgEmailInUse}
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Patient{}, ErrNotFound
		}
		return domain.Patient{}, err
	}
	patient.Name = name
	patient.Email = email
	patient.UpdatedAt = now
	return patient.Sanitized(), nil
}

// ResolveExternal convierte un perfil del proveedor en una cuenta local.
// Orden: id externo existente, luego email existente (vincula), luego alta.
func (s *PatientService) ResolveExternal(ctx context.Context, profile domain.ExternalProfile) (domain.Patient, error) {
	subject := strings.TrimSpace(profile.Subject)
	email := strings.TrimSpace(profile.Email)
	if subject == "" {
		return domain.Patient{}, newValidationError("provider subject is required")
	}

	patient, err := s.patients.GetByGoogleID(ctx, subject)
	if err == nil {
		return patient.Sanitized(), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Patient{}, err
	}

	if email == "" {
		return domain.Patient{}, newValidationError("provider email is required")
	}

	now := s.now()
	existing, err := s.patients.GetByEmail(ctx, email)
	if err == nil {
		if err := s.patients.LinkGoogle(ctx, existing.ID, subject, profile.AvatarURL, now); err != nil {
			return domain.Patient{}, err
		}
		existing.GoogleID = subject
		if profile.AvatarURL != "" {
			existing.Avatar = profile.AvatarURL
		}
		existing.Provider = domain.ProviderGoogle
		existing.IsVerified = true
		existing.LastLogin = &now
		existing.UpdatedAt = now
		s.logger.Info("linked external identity", zap.String("patient_id", existing.ID), zap.String("provider", string(domain.ProviderGoogle)))
		return existing.Sanitized(), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Patient{}, err
	}

	name := strings.TrimSpace(profile.DisplayName)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	patient = domain.Patient{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		GoogleID:   subject,
		Avatar:     profile.AvatarURL,
		Provider:   domain.ProviderGoogle,
		IsVerified: true,
		LastLogin:  &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Patient{}, &ConflictError{Message: msgPatientExists}
		}
		return domain.Patient{}, err
	}
	s.recorder.PatientRegistered()
	return patient, nil
}

// IssueToken firma un bearer token para un paciente ya resuelto.
func (s *PatientService) IssueToken(patient domain.Patient) (string, error) {
	return s.tokens.Issue(patient.ID)
}

// Authenticate resuelve un bearer token al paciente vigente.
func (s *PatientService) Authenticate(ctx context.Context, token string) (domain.Patient, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Patient{}, err
	}
	return s.Get(ctx, id)
}
