package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tourdeck/internal/config"
	"tourdeck/internal/db"
	"tourdeck/internal/domain"
	"tourdeck/internal/migrate"
	"tourdeck/internal/notify"
	"tourdeck/internal/optimizer"
)

type fakeNotifier struct {
	staff    []notify.StaffAssignment
	ops      []notify.OpsSummary
	staffErr error
	opsErr   error
}

func (f *fakeNotifier) StaffAssignment(ctx context.Context, n notify.StaffAssignment) error {
	if f.staffErr != nil {
		return f.staffErr
	}
	f.staff = append(f.staff, n)
	return nil
}

func (f *fakeNotifier) OpsSummary(ctx context.Context, s notify.OpsSummary) error {
	if f.opsErr != nil {
		return f.opsErr
	}
	f.ops = append(f.ops, s)
	return nil
}

func newTestEngine(t *testing.T) (Engine, *fakeNotifier) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := New(conn, config.Default("s2025", 2025))
	notifier := &fakeNotifier{}
	e.Notifier = notifier
	if _, err := e.InitSeason(context.Background(), "s2025", 2025, "2025 season", "test"); err != nil {
		t.Fatalf("init season: %v", err)
	}
	return e, notifier
}

func seedVehicle(t *testing.T, e Engine, id string) {
	t.Helper()
	err := e.Repo.InsertVehicle(context.Background(), domain.Vehicle{
		ID: id, SeasonID: "s2025", Name: "Truck " + id,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
}

func seedHub(t *testing.T, e Engine, id, name string) {
	t.Helper()
	if err := e.Repo.InsertHub(context.Background(), domain.Hub{ID: id, Name: name}); err != nil {
		t.Fatalf("seed hub: %v", err)
	}
}

func seedVenue(t *testing.T, e Engine, id, name string) {
	t.Helper()
	if err := e.Repo.InsertVenue(context.Background(), domain.Venue{ID: id, Name: name}); err != nil {
		t.Fatalf("seed venue: %v", err)
	}
}

func insertRun(t *testing.T, e Engine, run domain.OptimizerRun) {
	t.Helper()
	tx, err := e.DB.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := e.Repo.InsertRun(context.Background(), tx, run); err != nil {
		tx.Rollback()
		t.Fatalf("insert run: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestTripLifecycle(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	trip, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 3, ActorID: "ops"})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if trip.Status != "draft" {
		t.Fatalf("new trip status = %q, want draft", trip.Status)
	}
	if trip.SeasonYear != 2025 {
		t.Fatalf("season year = %d, want 2025", trip.SeasonYear)
	}

	trip, err = e.SetTripStatus(ctx, trip.ID, "confirmed", "ops")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if trip.Status != "confirmed" {
		t.Fatalf("status = %q, want confirmed", trip.Status)
	}

	if _, err := e.SetTripStatus(ctx, trip.ID, "completed", "ops"); err == nil {
		t.Fatal("confirmed -> completed should be rejected")
	}

	_, actions, err := e.TripActions(ctx, trip.ID)
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	if len(actions) != 2 || actions[0].To != "in_transit" || actions[1].To != "cancelled" {
		t.Fatalf("confirmed actions = %+v", actions)
	}
}

func TestCreateTripValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 19}); err == nil {
		t.Fatal("week 19 should be rejected")
	}
	if _, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 0}); err == nil {
		t.Fatal("week 0 should be rejected")
	}
	if _, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 2, Status: "confirmed"}); err == nil {
		t.Fatal("creating directly as confirmed should be rejected")
	}
	if _, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "missing", WeekNumber: 2}); err == nil {
		t.Fatal("unknown season should be rejected")
	}
}

func TestAssetMoveDerivesLocations(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	seedHub(t, e, "hub-1", "North Hub")
	seedVenue(t, e, "venue-1", "Riverside Arena")

	asset, err := e.RegisterAsset(ctx, RegisterAssetOptions{SeasonID: "s2025", Name: "Stage rig", HubID: "hub-1", ActorID: "ops"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if asset.Status != "at_hub" || asset.CurrentHubID == nil || *asset.CurrentHubID != "hub-1" {
		t.Fatalf("fresh asset = %+v", asset)
	}

	trip, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 1})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	asset, mv, err := e.MoveAsset(ctx, MoveAssetOptions{AssetID: asset.ID, To: "loaded", TripID: trip.ID, ActorID: "ops"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if asset.CurrentTripID == nil || *asset.CurrentTripID != trip.ID {
		t.Fatalf("loaded asset trip = %v", asset.CurrentTripID)
	}
	if asset.CurrentHubID != nil || asset.CurrentVenueID != nil {
		t.Fatalf("loaded asset still points at hub/venue: %+v", asset)
	}
	if mv.FromLocationType != "hub" || mv.FromLocationName != "North Hub" {
		t.Fatalf("movement from = %s %q", mv.FromLocationType, mv.FromLocationName)
	}
	if mv.ToLocationType != "in_transit" {
		t.Fatalf("movement to = %s", mv.ToLocationType)
	}

	if _, _, err := e.MoveAsset(ctx, MoveAssetOptions{AssetID: asset.ID, To: "on_site", VenueID: "venue-1"}); err == nil {
		t.Fatal("loaded -> on_site should be rejected")
	}

	if asset, _, err = e.MoveAsset(ctx, MoveAssetOptions{AssetID: asset.ID, To: "in_transit"}); err != nil {
		t.Fatalf("depart: %v", err)
	}
	asset, mv, err = e.MoveAsset(ctx, MoveAssetOptions{AssetID: asset.ID, To: "on_site", VenueID: "venue-1"})
	if err != nil {
		t.Fatalf("arrive: %v", err)
	}
	if asset.CurrentVenueID == nil || *asset.CurrentVenueID != "venue-1" {
		t.Fatalf("on_site asset venue = %v", asset.CurrentVenueID)
	}
	if asset.CurrentTripID != nil || asset.CurrentHubID != nil {
		t.Fatalf("on_site asset keeps trip/hub pointer: %+v", asset)
	}
	if mv.ToLocationName != "Riverside Arena" {
		t.Fatalf("movement to name = %q", mv.ToLocationName)
	}

	history, err := e.AssetMovements(ctx, asset.ID, 0)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("movement count = %d, want 3", len(history))
	}
}

func TestEvaluateReadiness(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	seedVehicle(t, e, "veh-1")

	mkTrip := func(status string) domain.Trip {
		t.Helper()
		trip, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 5, VehicleID: "veh-1"})
		if err != nil {
			t.Fatalf("create trip: %v", err)
		}
		if _, err := e.AssignCrew(ctx, trip.ID, "m-"+trip.ID[:8], "", "driver", "ops"); err != nil {
			t.Fatalf("assign crew: %v", err)
		}
		if status != "draft" {
			if trip, err = e.SetTripStatus(ctx, trip.ID, status, "ops"); err != nil {
				t.Fatalf("set status: %v", err)
			}
		}
		return trip
	}
	mkTrip("confirmed")
	mkTrip("confirmed")
	mkTrip("draft")

	r := e.EvaluateReadiness(ctx, 2025, 5)
	if r.TotalTrips != 3 || r.ConfirmedTrips != 2 || r.UnconfirmedTrips != 1 {
		t.Fatalf("counts = %d/%d/%d", r.TotalTrips, r.ConfirmedTrips, r.UnconfirmedTrips)
	}
	if r.IsReady {
		t.Fatal("week with a draft trip should not be ready")
	}
	if len(r.Reasons) != 1 || !strings.Contains(r.Reasons[0], "not confirmed") {
		t.Fatalf("reasons = %v", r.Reasons)
	}
}

func TestEvaluateReadinessFlagsGaps(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	trip, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 2})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if _, err := e.SetTripStatus(ctx, trip.ID, "confirmed", "ops"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	r := e.EvaluateReadiness(ctx, 2025, 2)
	if !r.IsReady {
		t.Fatalf("staffing gaps are advisory, week should be ready; reasons = %v", r.Reasons)
	}
	if len(r.TripsWithoutPersonnel) != 1 || r.TripsWithoutPersonnel[0] != trip.ID {
		t.Fatalf("trips without personnel = %v", r.TripsWithoutPersonnel)
	}
	if len(r.TripsWithoutVehicle) != 1 {
		t.Fatalf("trips without vehicle = %v", r.TripsWithoutVehicle)
	}
	if len(r.Reasons) != 2 ||
		!strings.Contains(r.Reasons[0], "no personnel") ||
		!strings.Contains(r.Reasons[1], "no vehicle") {
		t.Fatalf("reasons = %v", r.Reasons)
	}

	// Cancelled trips drop out entirely.
	if _, err := e.SetTripStatus(ctx, trip.ID, "cancelled", "ops"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	r = e.EvaluateReadiness(ctx, 2025, 2)
	if r.TotalTrips != 0 {
		t.Fatalf("total after cancel = %d", r.TotalTrips)
	}
	if r.IsReady {
		t.Fatal("empty week should not be ready")
	}
}

func TestEvaluateReadinessIgnoresOperationalTrips(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	seedVehicle(t, e, "veh-1")

	trip, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 7, VehicleID: "veh-1"})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if _, err := e.AssignCrew(ctx, trip.ID, "m-1", "", "driver", "ops"); err != nil {
		t.Fatalf("assign crew: %v", err)
	}
	for _, status := range []string{"confirmed", "in_transit"} {
		if _, err := e.SetTripStatus(ctx, trip.ID, status, "ops"); err != nil {
			t.Fatalf("to %s: %v", status, err)
		}
	}

	// A trip already underway is past the confirmation gate.
	r := e.EvaluateReadiness(ctx, 2025, 7)
	if r.UnconfirmedTrips != 0 {
		t.Fatalf("unconfirmed = %d, want 0", r.UnconfirmedTrips)
	}
	if !r.IsReady {
		t.Fatalf("in_transit trip must not block readiness; reasons = %v", r.Reasons)
	}
	if len(r.Reasons) != 0 {
		t.Fatalf("reasons = %v", r.Reasons)
	}
}

func newOptimizerStub(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDispatchRun(t *testing.T) {
	e, _ := newTestEngine(t)
	srv := newOptimizerStub(t, http.StatusOK, `{"status":"accepted","trips_generated":4}`)
	e.Optimizer = optimizer.New(srv.URL)

	res, err := e.DispatchRun(context.Background(), 2025, 4, "alice")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if res.Run.Status != "running" {
		t.Fatalf("run status = %q, want running", res.Run.Status)
	}
	if res.Response.TripsGenerated != 4 || res.Response.Status != "accepted" {
		t.Fatalf("response = %+v", res.Response)
	}

	got, err := e.Repo.GetRun(context.Background(), res.Run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.TriggeredBy != "alice" || got.WeekNumber != 4 {
		t.Fatalf("stored run = %+v", got)
	}
}

func TestDispatchConflict(t *testing.T) {
	e, _ := newTestEngine(t)
	srv := newOptimizerStub(t, http.StatusOK, `{}`)
	e.Optimizer = optimizer.New(srv.URL)

	insertRun(t, e, domain.OptimizerRun{
		ID: "run-active", SeasonYear: 2025, WeekNumber: 3, Status: "running",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})

	_, err := e.DispatchRun(context.Background(), 2025, 3, "alice")
	var conflict ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.ExistingRunID != "run-active" {
		t.Fatalf("conflict run = %q", conflict.ExistingRunID)
	}

	// A different week is unaffected.
	if _, err := e.DispatchRun(context.Background(), 2025, 4, "alice"); err != nil {
		t.Fatalf("week 4 dispatch: %v", err)
	}
}

func TestDispatchCooldown(t *testing.T) {
	e, _ := newTestEngine(t)
	srv := newOptimizerStub(t, http.StatusOK, `{}`)
	e.Optimizer = optimizer.New(srv.URL)
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	e.Now = func() time.Time { return now }

	completed := now.Add(-30 * time.Second).Format(time.RFC3339)
	insertRun(t, e, domain.OptimizerRun{
		ID: "run-done", SeasonYear: 2025, WeekNumber: 6, Status: "completed",
		CreatedAt:   now.Add(-time.Minute).Format(time.RFC3339),
		CompletedAt: &completed,
	})

	_, err := e.DispatchRun(context.Background(), 2025, 6, "alice")
	var cooldown CooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("err = %v, want CooldownError", err)
	}
	if cooldown.LastRunID != "run-done" || cooldown.RetryAfterSeconds != 30 {
		t.Fatalf("cooldown = %+v", cooldown)
	}

	// 61 seconds after completion the window has passed.
	e.Now = func() time.Time { return now.Add(31 * time.Second) }
	if _, err := e.DispatchRun(context.Background(), 2025, 6, "alice"); err != nil {
		t.Fatalf("dispatch after cooldown: %v", err)
	}
}

func TestDispatchUpstreamUnavailable(t *testing.T) {
	e, _ := newTestEngine(t)
	srv := newOptimizerStub(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()
	e.Optimizer = optimizer.New(url)

	res, err := e.DispatchRun(context.Background(), 2025, 7, "alice")
	var upstream UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if res.Run.Status != "failed" {
		t.Fatalf("run status = %q, want failed", res.Run.Status)
	}
	got, err := e.Repo.GetRun(context.Background(), upstream.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != "failed" || got.CompletedAt == nil {
		t.Fatalf("stored run = %+v", got)
	}
}

func TestCompleteRun(t *testing.T) {
	e, _ := newTestEngine(t)
	insertRun(t, e, domain.OptimizerRun{
		ID: "run-1", SeasonYear: 2025, WeekNumber: 2, Status: "running",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})

	run, err := e.CompleteRun(context.Background(), "run-1", "completed", "optimizer")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if run.Status != "completed" || run.CompletedAt == nil {
		t.Fatalf("run = %+v", run)
	}
	if _, err := e.CompleteRun(context.Background(), "run-1", "failed", "optimizer"); err == nil {
		t.Fatal("finishing a finished run should be rejected")
	}
	if _, err := e.CompleteRun(context.Background(), "run-1", "pending", "optimizer"); err == nil {
		t.Fatal("pending is not a terminal status")
	}
}

func TestApproveGameplan(t *testing.T) {
	e, notifier := newTestEngine(t)
	ctx := context.Background()
	seedVehicle(t, e, "veh-1")

	draft, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 8, VehicleID: "veh-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	recommended, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 8, Status: "recommended", VehicleID: "veh-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 8})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.SetTripStatus(ctx, cancelled.ID, "cancelled", "ops"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	for _, trip := range []domain.Trip{draft, recommended} {
		if _, err := e.AssignCrew(ctx, trip.ID, "m-"+trip.ID[:8], "Crew Member", "driver", "ops"); err != nil {
			t.Fatalf("crew: %v", err)
		}
	}

	res, err := e.ApproveGameplan(ctx, 2025, 8, "ops")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.TripsLocked != 2 {
		t.Fatalf("locked = %d, want 2", res.TripsLocked)
	}
	if res.NotificationsSent != 2 || len(notifier.staff) != 2 {
		t.Fatalf("notifications = %d / %d", res.NotificationsSent, len(notifier.staff))
	}
	// Readiness runs before the lock, so the approvable trips surface as
	// a not-confirmed warning.
	if len(res.ReadinessWarnings) != 1 || !strings.Contains(res.ReadinessWarnings[0], "2 trip(s) not confirmed") {
		t.Fatalf("warnings = %v", res.ReadinessWarnings)
	}
	for _, id := range []string{draft.ID, recommended.ID} {
		trip, err := e.Repo.GetTrip(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if trip.Status != "confirmed" {
			t.Fatalf("trip %s status = %q", id, trip.Status)
		}
	}
	got, err := e.Repo.GetTrip(ctx, cancelled.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "cancelled" {
		t.Fatalf("cancelled trip status = %q", got.Status)
	}

	// Re-approving is harmless: nothing left to lock.
	res, err = e.ApproveGameplan(ctx, 2025, 8, "ops")
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if res.TripsLocked != 0 {
		t.Fatalf("re-approve locked = %d, want 0", res.TripsLocked)
	}
}

func TestApproveGameplanNotReady(t *testing.T) {
	e, notifier := newTestEngine(t)
	ctx := context.Background()

	trip, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 9})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	notifier.staffErr = errors.New("smtp relay down")

	res, err := e.ApproveGameplan(ctx, 2025, 9, "ops")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.TripsLocked != 1 {
		t.Fatalf("locked = %d, want 1", res.TripsLocked)
	}
	if len(res.ReadinessWarnings) == 0 {
		t.Fatal("expected readiness warnings for unready week")
	}
	got, err := e.Repo.GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "confirmed" {
		t.Fatalf("status = %q: approval must proceed despite warnings", got.Status)
	}
}

func TestApproveGameplanNotifyFailure(t *testing.T) {
	e, notifier := newTestEngine(t)
	ctx := context.Background()
	seedVehicle(t, e, "veh-1")

	trip, err := e.CreateTrip(ctx, CreateTripOptions{SeasonID: "s2025", WeekNumber: 10, VehicleID: "veh-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.AssignCrew(ctx, trip.ID, "m-1", "", "driver", "ops"); err != nil {
		t.Fatalf("crew: %v", err)
	}
	notifier.staffErr = errors.New("webhook 502")

	res, err := e.ApproveGameplan(ctx, 2025, 10, "ops")
	if err != nil {
		t.Fatalf("approve must not fail on notification errors: %v", err)
	}
	if res.TripsLocked != 1 || res.NotificationsSent != 0 {
		t.Fatalf("locked=%d sent=%d", res.TripsLocked, res.NotificationsSent)
	}
	if len(res.NotificationErrors) != 1 || !strings.Contains(res.NotificationErrors[0], "m-1") {
		t.Fatalf("notification errors = %v", res.NotificationErrors)
	}
}

func TestRunScheduled(t *testing.T) {
	e, notifier := newTestEngine(t)
	srv := newOptimizerStub(t, http.StatusOK, `{"status":"accepted","trips_generated":2}`)
	e.Optimizer = optimizer.New(srv.URL)

	res := e.RunScheduled(context.Background(), 2025, 0)
	if res.WeekNumber != 1 {
		t.Fatalf("default week = %d, want 1", res.WeekNumber)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.Optimizer.TripsGenerated != 2 || res.Optimizer.RunID == "" {
		t.Fatalf("optimizer outcome = %+v", res.Optimizer)
	}
	if !res.OpsNotified || len(notifier.ops) != 1 {
		t.Fatalf("ops notified = %v (%d summaries)", res.OpsNotified, len(notifier.ops))
	}
	if notifier.ops[0].RunID != res.Optimizer.RunID {
		t.Fatalf("summary run id = %q", notifier.ops[0].RunID)
	}
}

func TestRunScheduledAggregatesFailures(t *testing.T) {
	e, notifier := newTestEngine(t)
	srv := newOptimizerStub(t, http.StatusOK, `{}`)
	e.Optimizer = optimizer.New(srv.URL)

	insertRun(t, e, domain.OptimizerRun{
		ID: "run-active", SeasonYear: 2025, WeekNumber: 1, Status: "pending",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	notifier.opsErr = errors.New("channel webhook down")

	res := e.RunScheduled(context.Background(), 2025, 1)
	if res.OpsNotified {
		t.Fatal("ops should not count as notified")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("errors = %v, want optimizer and notify entries", res.Errors)
	}
	if !strings.HasPrefix(res.Errors[0], "optimizer:") || !strings.HasPrefix(res.Errors[1], "notify:") {
		t.Fatalf("error prefixes = %v", res.Errors)
	}
}

func TestRunScheduledNotifiesAfterRunFailure(t *testing.T) {
	e, notifier := newTestEngine(t)
	srv := newOptimizerStub(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()
	e.Optimizer = optimizer.New(url)

	res := e.RunScheduled(context.Background(), 2025, 2)
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "optimizer:") {
		t.Fatalf("errors = %v", res.Errors)
	}
	if !res.OpsNotified || len(notifier.ops) != 1 {
		t.Fatal("ops summary must go out even when the run fails")
	}
	if notifier.ops[0].RunError == "" {
		t.Fatal("summary should carry the run error")
	}
}

func TestInitSeasonWritesConfig(t *testing.T) {
	e, _ := newTestEngine(t)
	cfg, err := e.Repo.GetSeasonConfig(context.Background(), "s2025")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cfg.Season.Year != 2025 || cfg.Season.Weeks != 18 {
		t.Fatalf("config = %+v", cfg.Season)
	}
	if cfg.Dispatch.CooldownSeconds != 60 || cfg.Dispatch.ScheduledTimeoutSeconds != 120 {
		t.Fatalf("dispatch config = %+v", cfg.Dispatch)
	}
}
