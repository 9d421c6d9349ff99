package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/kvstore"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

type memContacts struct{ contacts []models.Contact }

func (s *memContacts) Create(ctx context.Context, c *models.Contact) error {
	c.Timestamp = time.Now()
	s.contacts = append([]models.Contact{*c}, s.contacts...)
	return nil
}

func (s *memContacts) List(ctx context.Context) ([]models.Contact, error) {
	return s.contacts, nil
}

type staticPersona struct{}

func (staticPersona) Current() config.Persona { return config.DefaultPersona() }

func newTestRouter(t *testing.T) (http.Handler, *middleware.JWTAuth) {
	t.Helper()

	m := metrics.New(prometheus.NewRegistry())
	jwtAuth := middleware.NewJWTAuth("test-secret", time.Hour)

	quota := services.NewQuotaLimiter(kvstore.NewMemoryStore(), 10)
	chat := services.NewChatService(quota, nil, staticPersona{}, services.ChatOptions{}, m)
	contacts := services.NewContactService(&memContacts{}, nil, nil, m)

	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)

	h := Handlers{
		Chat:      handlers.NewChatHandler(chat, "OpenAI", true),
		Contact:   handlers.NewContactHandler(contacts, true),
		Project:   handlers.NewProjectHandler(nil, true),
		Admin:     handlers.NewAdminHandler(services.NewAdminAuthService("", jwtAuth), true),
		Analytics: handlers.NewAnalyticsHandler(nil, true),
	}
	return New(jwtAuth, h, m, limiter, "https://example.com"), jwtAuth
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	r, _ := newTestRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "portfolio_http_requests_total") {
		t.Fatalf("expected http metrics in exposition")
	}
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/contacts", "/api/v1/analytics"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rr.Code)
		}
	}
}

func TestRouter_AdminTokenAccepted(t *testing.T) {
	r, jwtAuth := newTestRouter(t)

	token, err := jwtAuth.GenerateAdminToken("admin")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRouter_ContactBurstLimited(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"name":"Ann","email":"ann@example.com","subject":"Hi","message":"Hello"}`
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
		req.Header.Set("X-Forwarded-For", "5.6.7.8")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		last = rr.Code
		if i < 2 && rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}
}

func TestRouter_ChatNotConfigured(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"messages":[{"role":"user","content":"Hi"}]}`))
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "OpenAI API key not configured") {
		t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
}
