package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediconnect/internal/domain"
)

// LabTestRepository define el contrato de persistencia del catálogo.
type LabTestRepository interface {
	List(ctx context.Context) ([]domain.LabTest, error)
	GetByID(ctx context.Context, id string) (domain.LabTest, error)
	InsertMany(ctx context.Context, tests []domain.LabTest) error
}

type PgLabTestRepository struct {
	pool *pgxpool.Pool
}

func NewPgLabTestRepository(pool *pgxpool.Pool) *PgLabTestRepository {
	return &PgLabTestRepository{pool: pool}
}

func (r *PgLabTestRepository) List(ctx context.Context) ([]domain.LabTest, error) {
	const query = `
		SELECT id, name, COALESCE(description, ''), price::float8, created_at, updated_at
		FROM lab_tests
		ORDER BY name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []domain.LabTest
	for rows.Next() {
		var t domain.LabTest
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Price, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (r *PgLabTestRepository) GetByID(ctx context.Context, id string) (domain.LabTest, error) {
	const query = `
		SELECT id, name, COALESCE(description, ''), price::float8, created_at, updated_at
		FROM lab_tests
		WHERE id = $1
	`
	var t domain.LabTest
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Description, &t.Price, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.LabTest{}, err
	}
	return t, nil
}

// InsertMany inserta el lote dentro de una transacción.
func (r *PgLabTestRepository) InsertMany(ctx context.Context, tests []domain.LabTest) error {
	const query = `
		INSERT INTO lab_tests (id, name, description, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range tests {
			batch.Queue(query, t.ID, t.Name, nullString(t.Description), t.Price, t.CreatedAt, t.UpdatedAt)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
