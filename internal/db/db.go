package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mediconnect/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// EnsureSchema crea las tablas si no existen. No es un sistema de migraciones.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL UNIQUE,
	password_hash  TEXT,
	google_id      TEXT UNIQUE,
	avatar         TEXT,
	provider       TEXT NOT NULL DEFAULT 'local' CHECK (provider IN ('local', 'google')),
	is_verified    BOOLEAN NOT NULL DEFAULT FALSE,
	login_attempts INTEGER NOT NULL DEFAULT 0,
	lock_until     TIMESTAMPTZ,
	last_login     TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	CHECK (password_hash IS NOT NULL OR google_id IS NOT NULL)
);

CREATE TABLE IF NOT EXISTS lab_tests (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	price       NUMERIC(10, 2) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id         UUID PRIMARY KEY,
	patient_id UUID NOT NULL REFERENCES patients (id),
	test_id    UUID NOT NULL REFERENCES lab_tests (id),
	date       TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_patient ON bookings (patient_id, date);
`
