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
	"mediconnect/internal/repository"
)

// DefaultLabTests es el catálogo inicial cuando la tabla está vacía.
var DefaultLabTests = []domain.LabTest{
	{Name: "Complete Blood Count (CBC)", Description: "Measures red cells, white cells, hemoglobin and platelets.", Price: 45},
	{Name: "Basic Metabolic Panel", Description: "Glucose, calcium, electrolytes and kidney function.", Price: 65},
	{Name: "Lipid Profile", Description: "Total cholesterol, HDL, LDL and triglycerides.", Price: 55},
	{Name: "Thyroid Function Test (TSH)", Description: "Thyroid stimulating hormone screening.", Price: 75},
	{Name: "Liver Function Panel", Description: "ALT, AST, ALP, bilirubin and albumin.", Price: 85},
	{Name: "Urinalysis", Description: "Physical, chemical and microscopic urine examination.", Price: 35},
	{Name: "Vitamin D Test", Description: "25-hydroxy vitamin D level.", Price: 95},
	{Name: "HbA1c (Diabetes Test)", Description: "Average blood sugar over the past three months.", Price: 125},
}

type LabTestService struct {
	logger *zap.Logger
	tests  repository.LabTestRepository
	now    func() time.Time
}

func NewLabTestService(logger *zap.Logger, tests repository.LabTestRepository) *LabTestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabTestService{
		logger: logger,
		tests:  tests,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List devuelve el catálogo; si está vacío lo siembra primero.
func (s *LabTestService) List(ctx context.Context) ([]domain.LabTest, error) {
	tests, err := s.tests.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(tests) > 0 {
		return tests, nil
	}
	if _, err := s.Seed(ctx); err != nil {
		s.logger.Warn("seed lab tests failed", zap.Error(err))
		return []domain.LabTest{}, nil
	}
	tests, err = s.tests.List(ctx)
	if err != nil {
		return nil, err
	}
	if tests == nil {
		tests = []domain.LabTest{}
	}
	return tests, nil
}

// Seed inserta el catálogo por defecto y devuelve cuántos estudios creó.
func (s *LabTestService) Seed(ctx context.Context) (int, error) {
	now := s.now()
	batch := make([]domain.LabTest, 0, len(DefaultLabTests))
	for _, t := range DefaultLabTests {
		t.ID = uuid.NewString()
		t.CreatedAt = now
		t.UpdatedAt = now
		batch = append(batch, t)
	}
	if err := s.tests.InsertMany(ctx, batch); err != nil {
		return 0, err
	}
	s.logger.Info("lab tests seeded", zap.Int("count", len(batch)))
	return len(batch), nil
}

func (s *LabTestService) Get(ctx context.Context, id string) (domain.LabTest, error) {
	if strings.TrimSpace(id) == "" {
		return domain.LabTest{}, ErrNotFound
	}
	test, err := s.tests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.LabTest{}, ErrNotFound
		}
		return domain.LabTest{}, err
	}
	return test, nil
}
