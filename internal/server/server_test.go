package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tourdeck/internal/config"
	"tourdeck/internal/db"
	"tourdeck/internal/domain"
	"tourdeck/internal/engine"
	"tourdeck/internal/migrate"
	"tourdeck/internal/notify"
	"tourdeck/internal/repo"
)

type stubNotifier struct {
	staff []notify.StaffAssignment
	ops   []notify.OpsSummary
}

func (s *stubNotifier) StaffAssignment(ctx context.Context, n notify.StaffAssignment) error {
	s.staff = append(s.staff, n)
	return nil
}

func (s *stubNotifier) OpsSummary(ctx context.Context, sum notify.OpsSummary) error {
	s.ops = append(s.ops, sum)
	return nil
}

type testEnv struct {
	srv      *httptest.Server
	engine   engine.Engine
	notifier *stubNotifier
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("s2025", 2025)
	cfg.Scheduler.Secret = "cron-secret"
	e := engine.New(conn, cfg)
	notifier := &stubNotifier{}
	e.Notifier = notifier
	if _, err := e.InitSeason(context.Background(), "s2025", 2025, "", "test"); err != nil {
		t.Fatalf("init season: %v", err)
	}

	handler, err := New(Config{
		Engine: e,
		Auth:   AuthConfig{JWTSecret: "test-secret", AllowLegacyActorHeader: true},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return testEnv{srv: srv, engine: e, notifier: notifier}
}

func (env testEnv) useOptimizer(t *testing.T, status int, body string) {
	t.Helper()
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(stub.Close)
	env.engine.Optimizer.URL = stub.URL
}

func doJSON(t *testing.T, method, url string, headers map[string]string, body any) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer res.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(res.Body)
	return res.StatusCode, buf.Bytes()
}

func asOps(h map[string]string) map[string]string {
	out := map[string]string{"X-Actor-Id": "ops"}
	for k, v := range h {
		out[k] = v
	}
	return out
}

func TestHealthRequiresNoAuth(t *testing.T) {
	env := newTestEnv(t)
	status, body := doJSON(t, http.MethodGet, env.srv.URL+"/v0/health", nil, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	env := newTestEnv(t)
	status, body := doJSON(t, http.MethodGet, env.srv.URL+"/v0/seasons", nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d: %s", status, body)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "unauthorized" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	env := newTestEnv(t)
	rawKey := "td_live_abc123"
	err := env.engine.Repo.InsertAPIKey(context.Background(), nil, domain.APIKey{
		ID: "key-1", ActorID: "svc-bot", Name: "ci",
		KeyHash: repo.HashAPIKey(rawKey),
	})
	if err != nil {
		t.Fatalf("insert key: %v", err)
	}
	status, body := doJSON(t, http.MethodGet, env.srv.URL+"/v0/seasons", map[string]string{"X-Api-Key": rawKey}, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
}

func TestTripFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	status, body := doJSON(t, http.MethodPost, env.srv.URL+"/v0/seasons/s2025/trips", asOps(nil),
		map[string]any{"week_number": 3})
	if status != http.StatusCreated {
		t.Fatalf("create trip: %d: %s", status, body)
	}
	var trip TripResponse
	if err := json.Unmarshal(body, &trip); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if trip.Status != "draft" || trip.SeasonYear != 2025 {
		t.Fatalf("trip = %+v", trip)
	}

	status, body = doJSON(t, http.MethodPatch, env.srv.URL+"/v0/trips/"+trip.ID+"/status", asOps(nil),
		map[string]any{"status": "confirmed"})
	if status != http.StatusOK {
		t.Fatalf("confirm: %d: %s", status, body)
	}

	// The graph has no confirmed -> on_site edge.
	status, body = doJSON(t, http.MethodPatch, env.srv.URL+"/v0/trips/"+trip.ID+"/status", asOps(nil),
		map[string]any{"status": "on_site"})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("invalid transition: %d: %s", status, body)
	}

	status, body = doJSON(t, http.MethodGet, env.srv.URL+"/v0/trips/"+trip.ID+"/actions", asOps(nil), nil)
	if status != http.StatusOK {
		t.Fatalf("actions: %d: %s", status, body)
	}
	var actions TripActionsResponse
	if err := json.Unmarshal(body, &actions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(actions.Actions) != 2 || actions.Actions[0].To != "in_transit" {
		t.Fatalf("actions = %+v", actions)
	}
}

func TestOptimizeProxiesUpstream(t *testing.T) {
	env := newTestEnv(t)
	env.useOptimizer(t, http.StatusOK, `{"status":"accepted","trips_generated":5}`)

	status, body := doJSON(t, http.MethodPost, env.srv.URL+"/v0/optimize", asOps(nil),
		map[string]any{"week_number": 2})
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
	if !strings.Contains(string(body), `"trips_generated":5`) {
		t.Fatalf("upstream body not proxied: %s", body)
	}
}

func TestOptimizeConflictAndCooldown(t *testing.T) {
	env := newTestEnv(t)
	env.useOptimizer(t, http.StatusOK, `{}`)
	ctx := context.Background()

	tx, err := env.engine.DB.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := env.engine.Repo.InsertRun(ctx, tx, domain.OptimizerRun{
		ID: "run-active", SeasonYear: 2025, WeekNumber: 3, Status: "running",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	status, body := doJSON(t, http.MethodPost, env.srv.URL+"/v0/optimize", asOps(nil),
		map[string]any{"week_number": 3})
	if status != http.StatusConflict {
		t.Fatalf("conflict status = %d: %s", status, body)
	}
	var conflictBody struct {
		Error         string `json:"error"`
		ExistingRunID string `json:"existing_run_id"`
	}
	if err := json.Unmarshal(body, &conflictBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if conflictBody.ExistingRunID != "run-active" || conflictBody.Error == "" {
		t.Fatalf("conflict body = %s", body)
	}

	completed := time.Now().UTC().Add(-10 * time.Second).Format(time.RFC3339)
	tx, err = env.engine.DB.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := env.engine.Repo.InsertRun(ctx, tx, domain.OptimizerRun{
		ID: "run-done", SeasonYear: 2025, WeekNumber: 4, Status: "completed",
		CreatedAt:   completed,
		CompletedAt: &completed,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/v0/optimize",
		bytes.NewReader([]byte(`{"week_number":4}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "ops")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("cooldown status = %d", res.StatusCode)
	}
	if res.Header.Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
	var cooldownBody struct {
		Error             string `json:"error"`
		LastRunID         string `json:"last_run_id"`
		RetryAfterSeconds int    `json:"retry_after_seconds"`
	}
	if err := json.NewDecoder(res.Body).Decode(&cooldownBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cooldownBody.LastRunID != "run-done" || cooldownBody.RetryAfterSeconds <= 0 {
		t.Fatalf("cooldown body = %+v", cooldownBody)
	}
}

func TestOptimizeUpstreamDown(t *testing.T) {
	env := newTestEnv(t)
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := stub.URL
	stub.Close()
	env.engine.Optimizer.URL = url

	status, body := doJSON(t, http.MethodPost, env.srv.URL+"/v0/optimize", asOps(nil),
		map[string]any{"week_number": 2})
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d: %s", status, body)
	}
	if !strings.Contains(string(body), `"error"`) {
		t.Fatalf("body = %s", body)
	}
}

func TestApproveGameplanEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip, err := env.engine.CreateTrip(ctx, engine.CreateTripOptions{SeasonID: "s2025", WeekNumber: 5, ActorID: "ops"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.engine.AssignCrew(ctx, trip.ID, "m-1", "Sam Carter", "driver", "ops"); err != nil {
		t.Fatalf("crew: %v", err)
	}

	status, body := doJSON(t, http.MethodPost, env.srv.URL+"/v0/gameplan/approve", asOps(nil),
		map[string]any{"week_number": 5, "season_year": 2025})
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
	var res approveResponse
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.TripsLocked != 1 || res.EmailsSent != 1 {
		t.Fatalf("res = %+v", res)
	}
	if len(res.ReadinessWarnings) == 0 {
		t.Fatal("unready week should surface warnings")
	}
	if len(env.notifier.staff) != 1 || env.notifier.staff[0].MemberID != "m-1" {
		t.Fatalf("staff notifications = %+v", env.notifier.staff)
	}
}

func TestApproveGameplanMissingFields(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []map[string]any{
		{},
		{"week_number": 5},
		{"season_year": 2025},
	} {
		status, res := doJSON(t, http.MethodPost, env.srv.URL+"/v0/gameplan/approve", asOps(nil), body)
		if status != http.StatusBadRequest {
			t.Fatalf("body %v: status = %d: %s", body, status, res)
		}
	}
}

func TestScheduledRunAuth(t *testing.T) {
	env := newTestEnv(t)
	env.useOptimizer(t, http.StatusOK, `{"status":"accepted","trips_generated":1}`)

	// Wrong secret: rejected, and no run recorded.
	status, body := doJSON(t, http.MethodPost, env.srv.URL+"/v0/runs/scheduled",
		map[string]string{"Authorization": "Bearer wrong"}, map[string]any{"week_number": 1})
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d: %s", status, body)
	}
	runs, err := env.engine.Repo.ListRuns(context.Background(), 2025, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("rejected trigger must have no side effects, got %d runs", len(runs))
	}

	status, body = doJSON(t, http.MethodPost, env.srv.URL+"/v0/runs/scheduled",
		map[string]string{"Authorization": "Bearer cron-secret"}, map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
	var res scheduledResponse
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Errors) != 0 || !res.OpsEmailSent {
		t.Fatalf("res = %+v", res)
	}
	if res.OptimizerResult.RunID == "" || res.OptimizerResult.TripsGenerated != 1 {
		t.Fatalf("optimizer result = %+v", res.OptimizerResult)
	}
	if len(env.notifier.ops) != 1 || env.notifier.ops[0].WeekNumber != 1 {
		t.Fatalf("ops summaries = %+v", env.notifier.ops)
	}
}
