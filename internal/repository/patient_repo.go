package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediconnect/internal/domain"
)

// ErrDuplicate se devuelve cuando una restricción única rechaza la escritura.
var ErrDuplicate = errors.New("duplicate record")

// LoginAttemptState es el estado de bloqueo tras registrar un intento fallido.
type LoginAttemptState struct {
	Attempts  int
	LockUntil *time.Time
}

// PatientRepository define el contrato de persistencia para pacientes.
type PatientRepository interface {
	Create(ctx context.Context, patient domain.Patient) error
	GetByID(ctx context.Context, id string) (domain.Patient, error)
	GetByEmail(ctx context.Context, email string) (domain.Patient, error)
	GetByGoogleID(ctx context.Context, googleID string) (domain.Patient, error)
	LinkGoogle(ctx context.Context, id, googleID, avatar string, at time.Time) error
	UpdateProfile(ctx context.Context, id, name, email string, at time.Time) error
	RegisterFailedLogin(ctx context.Context, id string, now time.Time, maxAttempts int, lockFor time.Duration) (LoginAttemptState, error)
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error
}

// PgPatientRepository implementa PatientRepository usando pgxpool.
type PgPatientRepository struct {
	pool *pgxpool.Pool
}

func NewPgPatientRepository(pool *pgxpool.Pool) *PgPatientRepository {
	return &PgPatientRepository{pool: pool}
}

const patientColumns = `
	id, name, email, password_hash, google_id, avatar, provider, is_verified,
	login_attempts, lock_until, last_login, created_at, updated_at
`

func (r *PgPatientRepository) Create(ctx context.Context, p domain.Patient) error {
	const query = `
		INSERT INTO patients (id, name, email, password_hash, google_id, avatar, provider,
			is_verified, login_attempts, lock_until, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		nullString(p.PasswordHash),
		nullString(p.GoogleID),
		nullString(p.Avatar),
		string(p.Provider),
		p.IsVerified,
		p.LoginAttempts,
		p.LockUntil,
		p.LastLogin,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return translateErr(err)
}

func (r *PgPatientRepository) GetByID(ctx context.Context, id string) (domain.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
}

func (r *PgPatientRepository) GetByEmail(ctx context.Context, email string) (domain.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE email = $1`, email)
}

func (r *PgPatientRepository) GetByGoogleID(ctx context.Context, googleID string) (domain.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE google_id = $1`, googleID)
}

func (r *PgPatientRepository) LinkGoogle(ctx context.Context, id, googleID, avatar string, at time.Time) error {
	const query = `
		UPDATE patients
		SET google_id = $2,
			avatar = COALESCE(NULLIF($3, ''), avatar),
			provider = 'google',
			is_verified = TRUE,
			last_login = $4,
			updated_at = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, googleID, avatar, at)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgPatientRepository) UpdateProfile(ctx context.Context, id, name, email string, at time.Time) error {
	const query = `
		UPDATE patients
		SET name = $2, email = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, name, email, at)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RegisterFailedLogin incrementa el contador en un único UPDATE condicional.
// Un bloqueo vencido se descarta y el contador reinicia en 1.
func (r *PgPatientRepository) RegisterFailedLogin(ctx context.Context, id string, now time.Time, maxAttempts int, lockFor time.Duration) (LoginAttemptState, error) {
	const query = `
		UPDATE patients
		SET login_attempts = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN 1
				ELSE login_attempts + 1
			END,
			lock_until = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN NULL
				WHEN lock_until IS NULL AND login_attempts + 1 >= $3 THEN $4::timestamptz
				ELSE lock_until
			END,
			updated_at = $2
		WHERE id = $1
		RETURNING login_attempts, lock_until
	`
	var state LoginAttemptState
	err := r.pool.QueryRow(ctx, query, id, now, maxAttempts, now.Add(lockFor)).Scan(
		&state.Attempts,
		&state.LockUntil,
	)
	if err != nil {
		return LoginAttemptState{}, err
	}
	return state, nil
}

func (r *PgPatientRepository) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE patients
		SET login_attempts = 0, lock_until = NULL, last_login = $2, updated_at = $2
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgPatientRepository) getOne(ctx context.Context, query string, arg any) (domain.Patient, error) {
	var (
		p            domain.Patient
		passwordHash *string
		googleID     *string
		avatar       *string
		provider     string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&passwordHash,
		&googleID,
		&avatar,
		&provider,
		&p.IsVerified,
		&p.LoginAttempts,
		&p.LockUntil,
		&p.LastLogin,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Patient{}, err
	}
	p.PasswordHash = deref(passwordHash)
	p.GoogleID = deref(googleID)
	p.Avatar = deref(avatar)
	p.Provider = domain.Provider(provider)
	return p, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
