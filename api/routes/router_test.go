package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/pkg/config"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
	"github.com/angelmondragon/importgroups-backend/pkg/metrics"
	"github.com/angelmondragon/importgroups-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type denyLimiter struct{}

func (denyLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return false, 1, nil
}

func testConfig(env string) *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: env},
		JWT:       config.JWTConfig{Secret: "router-secret", Issuer: "importgroups", ExpirationMinutes: 5},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{Window: time.Minute, DemoLimit: 10, TokenLimit: 10},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, limiter redis.RateLimiter) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	engine, err := groups.NewEngine(groups.EngineParams{
		Random:    groups.NewRandomizer(1),
		Scheduler: groups.NewManualScheduler(time.Now()),
		Logger:    logger.Nop(),
		Metrics:   metrics.NewGroupMetrics(reg),
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(engine.Close)
	svc, err := groups.NewService(engine, logger.Nop())
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return NewRouter(cfg, logger.Nop(), reg, stubPinger{}, nil, limiter, nil, svc, nil)
}

func do(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	h := newTestRouter(t, testConfig("dev"), nil)

	if resp := do(t, h, http.MethodGet, "/health/live", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := do(t, h, http.MethodGet, "/health/ready", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	do(t, h, http.MethodPost, "/api/v1/groups", `{}`, "")
	resp := do(t, h, http.MethodGet, "/metrics", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "importgroups_groups_created_total") {
		t.Fatalf("expected group metrics in exposition, got %s", resp.Body.String())
	}
}

func TestGroupRoutes(t *testing.T) {
	h := newTestRouter(t, testConfig("dev"), nil)

	resp := do(t, h, http.MethodPost, "/api/v1/groups", `{"transportMode":"maritime"}`, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Data groups.GroupView `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	id := created.Data.ID.String()
	if resp := do(t, h, http.MethodGet, "/api/v1/groups/"+id, "", ""); resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d", resp.Code)
	}
	if resp := do(t, h, http.MethodGet, "/api/v1/groups/available?role=carrier", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("available: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := do(t, h, http.MethodPost, "/api/v1/groups/"+id+"/occupants", `{"role":"carrier"}`, ""); resp.Code != http.StatusOK {
		t.Fatalf("occupant: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := do(t, h, http.MethodPost, "/api/v1/filters/air/toggle", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200 got %d", resp.Code)
	}
	if resp := do(t, h, http.MethodDelete, "/api/v1/groups/"+id, "", ""); resp.Code != http.StatusOK {
		t.Fatalf("retire: expected 200 got %d", resp.Code)
	}
	if resp := do(t, h, http.MethodGet, "/api/v1/roles", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("roles: expected 200 got %d", resp.Code)
	}
}

func TestArchiveRoutesAbsentWhenDisabled(t *testing.T) {
	h := newTestRouter(t, testConfig("dev"), nil)
	if resp := do(t, h, http.MethodGet, "/api/v1/archive", "", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestMeRoutesRequireImporterToken(t *testing.T) {
	h := newTestRouter(t, testConfig("dev"), nil)

	if resp := do(t, h, http.MethodPost, "/api/v1/me/groups", `{}`, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	mint := func(role string) string {
		resp := do(t, h, http.MethodPost, "/api/dev/token", `{"role":"`+role+`"}`, "")
		if resp.Code != http.StatusCreated {
			t.Fatalf("dev token: expected 201 got %d: %s", resp.Code, resp.Body.String())
		}
		var body struct {
			Data struct {
				AccessToken string `json:"accessToken"`
			} `json:"data"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.Data.AccessToken
	}

	if resp := do(t, h, http.MethodPost, "/api/v1/me/groups", `{}`, mint("carrier")); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	resp := do(t, h, http.MethodPost, "/api/v1/me/groups", `{}`, mint("importer"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Data groups.GroupView `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	join := "/api/v1/me/groups/" + created.Data.ID.String() + "/join"
	if resp := do(t, h, http.MethodPost, join, "", mint("customs_agent")); resp.Code != http.StatusOK {
		t.Fatalf("join: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDevTokenHiddenInProd(t *testing.T) {
	h := newTestRouter(t, testConfig("prod"), nil)
	if resp := do(t, h, http.MethodPost, "/api/dev/token", `{"role":"importer"}`, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestDemoRoutesRateLimited(t *testing.T) {
	h := newTestRouter(t, testConfig("dev"), denyLimiter{})
	resp := do(t, h, http.MethodPost, "/api/v1/demo/tick", "", "")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if resp := do(t, h, http.MethodGet, "/api/v1/groups", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("groups must not be throttled, got %d", resp.Code)
	}
}
