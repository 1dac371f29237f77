package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mediconnect/internal/config"
	"mediconnect/internal/db"
	"mediconnect/internal/logger"
	"mediconnect/internal/repository"
	"mediconnect/internal/service"
)

// seed carga el catálogo de estudios por defecto si la tabla está vacía.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		zl.Fatal("db schema", zap.Error(err))
	}

	repo := repository.NewPgLabTestRepository(pool)
	existing, err := repo.List(ctx)
	if err != nil {
		zl.Fatal("list lab tests", zap.Error(err))
	}
	if len(existing) > 0 {
		zl.Info("lab test catalog already seeded", zap.Int("count", len(existing)))
		return
	}

	svc := service.NewLabTestService(zl, repo)
	n, err := svc.Seed(ctx)
	if err != nil {
		zl.Fatal("seed lab tests", zap.Error(err))
	}
	zl.Info("lab test catalog ready", zap.Int("inserted", n))
}
