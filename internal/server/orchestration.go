package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"tourdeck/internal/engine"
)

// The orchestration endpoints sit outside the generated API surface: they
// proxy an upstream response verbatim or answer with contractual shapes
// the schema layer would mangle.
func registerOrchestration(r chi.Router, basePath string, e engine.Engine) {
	r.Post(path.Join(basePath, "optimize"), handleOptimize(e))
	r.Post(path.Join(basePath, "gameplan/approve"), handleApprove(e))
	r.Post(path.Join(basePath, "runs/scheduled"), handleScheduled(e))
}

type weekRequest struct {
	SeasonYear int `json:"season_year"`
	WeekNumber int `json:"week_number"`
}

func (req *weekRequest) fill(e engine.Engine) {
	if req.SeasonYear == 0 && e.Config != nil {
		req.SeasonYear = e.Config.Season.Year
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func handleOptimize(e engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req weekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "invalid json body", nil))
			return
		}
		req.fill(e)
		if req.WeekNumber == 0 {
			respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "week_number is required", nil))
			return
		}
		actorID, authErr := actorIDFromContext(r.Context())
		if authErr != nil {
			respondStatusError(w, authErr)
			return
		}

		res, err := e.DispatchRun(r.Context(), req.SeasonYear, req.WeekNumber, actorID)
		if err != nil {
			var conflict engine.ConflictError
			var cooldown engine.CooldownError
			var upstream engine.UpstreamError
			switch {
			case errors.As(err, &conflict):
				writeJSON(w, http.StatusConflict, map[string]any{
					"error":           conflict.Error(),
					"existing_run_id": conflict.ExistingRunID,
				})
			case errors.As(err, &cooldown):
				w.Header().Set("Retry-After", fmt.Sprintf("%d", cooldown.RetryAfterSeconds))
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":               cooldown.Error(),
					"last_run_id":         cooldown.LastRunID,
					"retry_after_seconds": cooldown.RetryAfterSeconds,
				})
			case errors.As(err, &upstream):
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"error": upstream.Error(),
				})
			default:
				respondStatusError(w, handleError(err))
			}
			return
		}

		// Proxy the optimization engine's answer, status code included.
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Tourdeck-Run", res.Run.ID)
		w.WriteHeader(res.Response.StatusCode)
		w.Write(res.Response.Body)
	}
}

type approveResponse struct {
	Success           bool     `json:"success"`
	TripsLocked       int64    `json:"tripsLocked"`
	EmailsSent        int      `json:"emailsSent"`
	ApprovedAt        string   `json:"approvedAt"`
	ReadinessWarnings []string `json:"readinessWarnings"`
	EmailErrors       []string `json:"emailErrors"`
}

func handleApprove(e engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req weekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "invalid json body", nil))
			return
		}
		// Approval is deliberate; both coordinates must be explicit.
		if req.WeekNumber == 0 || req.SeasonYear == 0 {
			respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", "week_number and season_year are required", nil))
			return
		}
		actorID, authErr := actorIDFromContext(r.Context())
		if authErr != nil {
			respondStatusError(w, authErr)
			return
		}

		res, err := e.ApproveGameplan(r.Context(), req.SeasonYear, req.WeekNumber, actorID)
		if err != nil {
			respondStatusError(w, handleError(err))
			return
		}
		writeJSON(w, http.StatusOK, approveResponse{
			Success:           true,
			TripsLocked:       res.TripsLocked,
			EmailsSent:        res.NotificationsSent,
			ApprovedAt:        res.ApprovedAt,
			ReadinessWarnings: emptyIfNil(res.ReadinessWarnings),
			EmailErrors:       emptyIfNil(res.NotificationErrors),
		})
	}
}

func handleScheduled(e engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := ""
		if e.Config != nil {
			secret = e.Config.Scheduler.Secret
		}
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if secret == "" || !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			respondStatusError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "invalid scheduler credentials", nil))
			return
		}

		var req weekRequest
		if r.Body != nil {
			// Absent or empty body means the configured defaults.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		req.fill(e)

		res := e.RunScheduled(r.Context(), req.SeasonYear, req.WeekNumber)
		writeJSON(w, http.StatusOK, scheduledResponse{
			OptimizerResult: scheduledOptimizerResult{
				RunID:          res.Optimizer.RunID,
				TripsGenerated: res.Optimizer.TripsGenerated,
				Status:         res.Optimizer.Status,
			},
			OpsEmailSent: res.OpsNotified,
			Errors:       emptyIfNil(res.Errors),
		})
	}
}

type scheduledOptimizerResult struct {
	RunID          string `json:"runId,omitempty"`
	TripsGenerated int    `json:"tripsGenerated"`
	Status         string `json:"status,omitempty"`
}

type scheduledResponse struct {
	OptimizerResult scheduledOptimizerResult `json:"optimizerResult"`
	OpsEmailSent    bool                     `json:"opsEmailSent"`
	Errors          []string                 `json:"errors"`
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
