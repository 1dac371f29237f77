package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mediconnect/internal/domain"
)

// BookingRepository define el contrato de persistencia para reservas.
type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) error
	GetByID(ctx context.Context, id string) (domain.Booking, error)
	ListByPatient(ctx context.Context, patientID string) ([]domain.BookingWithTest, error)
}

type PgBookingRepository struct {
	pool *pgxpool.Pool
}

func NewPgBookingRepository(pool *pgxpool.Pool) *PgBookingRepository {
	return &PgBookingRepository{pool: pool}
}

func (r *PgBookingRepository) Create(ctx context.Context, b domain.Booking) error {
	const query = `
		INSERT INTO bookings (id, patient_id, test_id, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		b.ID,
		b.PatientID,
		b.TestID,
		b.Date,
		b.CreatedAt,
		b.UpdatedAt,
	)
	return translateErr(err)
}

func (r *PgBookingRepository) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	const query = `
		SELECT id, patient_id, test_id, date, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var b domain.Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.PatientID,
		&b.TestID,
		&b.Date,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

// ListByPatient devuelve las reservas del paciente con el estudio poblado.
func (r *PgBookingRepository) ListByPatient(ctx context.Context, patientID string) ([]domain.BookingWithTest, error) {
	const query = `
		SELECT b.id, b.patient_id, b.test_id, b.date, b.created_at, b.updated_at,
			t.id, t.name, COALESCE(t.description, ''), t.price::float8, t.created_at, t.updated_at
		FROM bookings b
		LEFT JOIN lab_tests t ON t.id = b.test_id
		WHERE b.patient_id = $1
		ORDER BY b.date DESC
	`
	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.BookingWithTest, 0)
	for rows.Next() {
		var (
			b         domain.BookingWithTest
			testID    *string
			name      *string
			desc      *string
			price     *float64
			createdAt *time.Time
			updatedAt *time.Time
		)
		if err := rows.Scan(
			&b.ID, &b.PatientID, &b.TestID, &b.Date, &b.CreatedAt, &b.UpdatedAt,
			&testID, &name, &desc, &price, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		if testID != nil {
			b.Test = &domain.LabTest{
				ID:          *testID,
				Name:        deref(name),
				Description: deref(desc),
			}
			if price != nil {
				b.Test.Price = *price
			}
			if createdAt != nil {
				b.Test.CreatedAt = *createdAt
			}
			if updatedAt != nil {
				b.Test.UpdatedAt = *updatedAt
			}
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
