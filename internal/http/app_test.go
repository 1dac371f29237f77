package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mediconnect/internal/domain"
	"mediconnect/internal/email"
	"mediconnect/internal/oauth"
	"mediconnect/internal/service"
)

type testApp struct {
	router   *gin.Engine
	clock    *clock
	patients *mockPatientRepo
	tokens   *service.TokenService
	sessions service.SessionStore
	provider *fakeProvider
}

type appOptions struct {
	withoutProvider bool
	limiter         service.AuthRateLimiter
	pinger          Pinger
	sessions        service.SessionStore
}

func newTestApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	patientRepo := newMockPatientRepo()
	testRepo := &mockLabTestRepo{tests: []domain.LabTest{{ID: "t1", Name: "Lipid Profile", Price: 55}}}
	bookingRepo := newMockBookingRepo(testRepo)

	tokens := service.NewTokenService("secret", 30*24*time.Hour).WithClock(clk.Now)
	patientSvc := service.NewPatientService(logger, patientRepo, tokens, service.PatientServiceOptions{
		BcryptCost: bcrypt.MinCost,
	}).WithClock(clk.Now)
	labSvc := service.NewLabTestService(logger, testRepo)
	bookingSvc := service.NewBookingService(logger, bookingRepo, labSvc, nil, nil).WithClock(clk.Now)
	reportSvc := service.NewReportService(logger, bookingSvc, patientSvc, email.NewDisabledSender("smtp not configured"), nil)

	sessions := opts.sessions
	if sessions == nil {
		sessions = service.NewMemorySessionStore()
	}
	states := service.NewMemoryStateStore(0)

	provider := &fakeProvider{profile: domain.ExternalProfile{
		Provider:    domain.ProviderGoogle,
		Subject:     "g-42",
		DisplayName: "Alice",
		Email:       "alice@x.com",
		AvatarURL:   "https://img/a.png",
	}}
	var p oauth.Provider = provider
	if opts.withoutProvider {
		p = nil
	}

	router := NewRouter(logger, RouterDeps{
		Patients: NewPatientHandler(logger, patientSvc),
		Auth: NewAuthHandler(logger, patientSvc, p, states, sessions, AuthHandlerConfig{
			ClientURL: "http://client.test",
		}),
		Bookings:    NewBookingHandler(logger, bookingSvc, reportSvc),
		Tests:       NewLabTestHandler(logger, labSvc),
		System:      NewSystemHandler(logger, opts.pinger),
		Gate:        NewAuthGate(logger, patientSvc, sessions),
		RateLimiter: opts.limiter,
	})

	return &testApp{
		router:   router,
		clock:    clk,
		patients: patientRepo,
		tokens:   tokens,
		sessions: sessions,
		provider: provider,
	}
}

func (a *testApp) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

type authResponse struct {
	Patient map[string]any `json:"patient"`
	Token   string         `json:"token"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func (a *testApp) register(t *testing.T, name, emailAddr, password string) authResponse {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/patients/register", map[string]string{
		"name": name, "email": emailAddr, "password": password,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[authResponse](t, rec)
}
