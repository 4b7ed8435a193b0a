package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"tourdeck/internal/engine"
	"tourdeck/internal/repo"
	"tourdeck/internal/state"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"run_conflict"`
	Message string         `json:"message" example:"an optimizer run is already active for this week"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Tourdeck API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope above.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Tourdeck API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerSeasons(group, cfg.Engine)
	registerFleet(group, cfg.Engine)
	registerTrips(group, cfg.Engine)
	registerAssets(group, cfg.Engine)
	registerReadiness(group, cfg.Engine)
	registerRuns(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOrchestration(router, basePath, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	startWebhookDispatcher(cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var conflict engine.ConflictError
	if errors.As(err, &conflict) {
		return newAPIError(http.StatusConflict, "run_conflict", err.Error(), map[string]any{"run_id": conflict.ExistingRunID})
	}
	var cooldown engine.CooldownError
	if errors.As(err, &cooldown) {
		return newAPIError(http.StatusTooManyRequests, "cooldown_active", err.Error(), map[string]any{
			"run_id":              cooldown.LastRunID,
			"retry_after_seconds": cooldown.RetryAfterSeconds,
		})
	}
	var upstream engine.UpstreamError
	if errors.As(err, &upstream) {
		return newAPIError(http.StatusServiceUnavailable, "optimizer_unavailable", err.Error(), map[string]any{"run_id": upstream.RunID})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "cannot go from"),
		strings.Contains(lowered, "already finished"):
		return newAPIError(http.StatusUnprocessableEntity, "invalid_transition", msg, nil)
	case strings.Contains(lowered, "invalid"),
		strings.Contains(lowered, "unknown"),
		strings.Contains(lowered, "required"),
		strings.Contains(lowered, "not, "):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	case strings.Contains(lowered, "unique constraint"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "cooldown_active"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusServiceUnavailable:
		return "optimizer_unavailable"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Tourdeck API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerSeasons(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-season",
		Method:        http.MethodPost,
		Path:          "/seasons",
		Summary:       "Create season",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateSeasonRequest `json:"body"`
	}) (*struct {
		Body SeasonResponse `json:"body"`
	}, error) {
		if input.Body.ID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id is required", nil)
		}
		if input.Body.Year == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "year is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.InitSeason(ctx, input.Body.ID, input.Body.Year, input.Body.Label, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SeasonResponse `json:"body"`
		}{Body: seasonResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-seasons",
		Method:      http.MethodGet,
		Path:        "/seasons",
		Summary:     "List seasons",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []SeasonResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListSeasons(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]SeasonResponse, 0, len(items))
		for _, s := range items {
			out = append(out, seasonResponse(s))
		}
		return &struct {
			Body []SeasonResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-season",
		Method:      http.MethodGet,
		Path:        "/seasons/{season_id}",
		Summary:     "Get season",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SeasonID string `path:"season_id"`
	}) (*struct {
		Body SeasonResponse `json:"body"`
	}, error) {
		s, err := e.Repo.GetSeason(ctx, input.SeasonID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SeasonResponse `json:"body"`
		}{Body: seasonResponse(s)}, nil
	})
}

func registerFleet(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-vehicle",
		Method:        http.MethodPost,
		Path:          "/seasons/{season_id}/vehicles",
		Summary:       "Register vehicle",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SeasonID string               `path:"season_id"`
		Body     CreateVehicleRequest `json:"body"`
	}) (*struct {
		Body VehicleResponse `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		v, err := e.AddVehicle(ctx, input.SeasonID, input.Body.ID, input.Body.Name, input.Body.Capacity)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body VehicleResponse `json:"body"`
		}{Body: vehicleResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-vehicles",
		Method:      http.MethodGet,
		Path:        "/seasons/{season_id}/vehicles",
		Summary:     "List vehicles",
	}, func(ctx context.Context, input *struct {
		SeasonID string `path:"season_id"`
	}) (*struct {
		Body []VehicleResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListVehicles(ctx, input.SeasonID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]VehicleResponse, 0, len(items))
		for _, v := range items {
			out = append(out, vehicleResponse(v))
		}
		return &struct {
			Body []VehicleResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-hub",
		Method:        http.MethodPost,
		Path:          "/hubs",
		Summary:       "Register hub",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreatePlaceRequest `json:"body"`
	}) (*struct {
		Body PlaceResponse `json:"body"`
	}, error) {
		if input.Body.ID == "" || input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id and name are required", nil)
		}
		h, err := e.AddHub(ctx, input.Body.ID, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PlaceResponse `json:"body"`
		}{Body: PlaceResponse{ID: h.ID, Name: h.Name}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-venue",
		Method:        http.MethodPost,
		Path:          "/venues",
		Summary:       "Register venue",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreatePlaceRequest `json:"body"`
	}) (*struct {
		Body PlaceResponse `json:"body"`
	}, error) {
		if input.Body.ID == "" || input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id and name are required", nil)
		}
		v, err := e.AddVenue(ctx, input.Body.ID, input.Body.Name, input.Body.City)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PlaceResponse `json:"body"`
		}{Body: PlaceResponse{ID: v.ID, Name: v.Name, City: v.City}}, nil
	})
}

func registerTrips(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-trip",
		Method:        http.MethodPost,
		Path:          "/seasons/{season_id}/trips",
		Summary:       "Create trip",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SeasonID string            `path:"season_id"`
		Body     CreateTripRequest `json:"body"`
	}) (*struct {
		Body TripResponse `json:"body"`
	}, error) {
		if input.Body.WeekNumber == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "week_number is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CreateTrip(ctx, engine.CreateTripOptions{
			ID:         input.Body.ID,
			SeasonID:   input.SeasonID,
			WeekNumber: input.Body.WeekNumber,
			Status:     input.Body.Status,
			VehicleID:  input.Body.VehicleID,
			Notes:      input.Body.Notes,
			ActorID:    actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TripResponse `json:"body"`
		}{Body: tripResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-trips",
		Method:      http.MethodGet,
		Path:        "/seasons/{season_id}/trips",
		Summary:     "List trips",
	}, func(ctx context.Context, input *struct {
		SeasonID   string `path:"season_id"`
		WeekNumber int    `query:"week_number"`
	}) (*struct {
		Body []TripResponse `json:"body"`
	}, error) {
		var trips []TripResponse
		if input.WeekNumber > 0 {
			season, err := e.Repo.GetSeason(ctx, input.SeasonID)
			if err != nil {
				return nil, handleError(err)
			}
			items, err := e.Repo.TripsForWeek(ctx, season.Year, input.WeekNumber)
			if err != nil {
				return nil, handleError(err)
			}
			trips = mapTrips(items)
		} else {
			items, err := e.Repo.ListTrips(ctx, input.SeasonID)
			if err != nil {
				return nil, handleError(err)
			}
			trips = mapTrips(items)
		}
		return &struct {
			Body []TripResponse `json:"body"`
		}{Body: trips}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-trip",
		Method:      http.MethodGet,
		Path:        "/trips/{trip_id}",
		Summary:     "Get trip",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TripID string `path:"trip_id"`
	}) (*struct {
		Body TripResponse `json:"body"`
	}, error) {
		t, err := e.Repo.GetTrip(ctx, input.TripID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TripResponse `json:"body"`
		}{Body: tripResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-trip-status",
		Method:      http.MethodPatch,
		Path:        "/trips/{trip_id}/status",
		Summary:     "Update trip status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		TripID string               `path:"trip_id"`
		Body   SetTripStatusRequest `json:"body"`
	}) (*struct {
		Body TripResponse `json:"body"`
	}, error) {
		if input.Body.Status == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "status is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.SetTripStatus(ctx, input.TripID, input.Body.Status, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TripResponse `json:"body"`
		}{Body: tripResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "trip-actions",
		Method:      http.MethodGet,
		Path:        "/trips/{trip_id}/actions",
		Summary:     "Allowed next actions for a trip",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TripID string `path:"trip_id"`
	}) (*struct {
		Body TripActionsResponse `json:"body"`
	}, error) {
		t, actions, err := e.TripActions(ctx, input.TripID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]state.TripAction, 0, len(actions))
		out = append(out, actions...)
		return &struct {
			Body TripActionsResponse `json:"body"`
		}{Body: TripActionsResponse{TripID: t.ID, Status: t.Status, Actions: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-vehicle",
		Method:      http.MethodPut,
		Path:        "/trips/{trip_id}/vehicle",
		Summary:     "Assign or clear the trip vehicle",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TripID string               `path:"trip_id"`
		Body   AssignVehicleRequest `json:"body"`
	}) (*struct {
		Body TripResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.AssignVehicle(ctx, input.TripID, input.Body.VehicleID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TripResponse `json:"body"`
		}{Body: tripResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "assign-crew",
		Method:        http.MethodPost,
		Path:          "/trips/{trip_id}/crew",
		Summary:       "Assign crew member",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		TripID string            `path:"trip_id"`
		Body   AssignCrewRequest `json:"body"`
	}) (*struct {
		Body CrewResponse `json:"body"`
	}, error) {
		if input.Body.MemberID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "member_id is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.AssignCrew(ctx, input.TripID, input.Body.MemberID, input.Body.MemberName, input.Body.Role, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CrewResponse `json:"body"`
		}{Body: crewResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-crew",
		Method:      http.MethodGet,
		Path:        "/trips/{trip_id}/crew",
		Summary:     "List trip crew",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TripID string `path:"trip_id"`
	}) (*struct {
		Body []CrewResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetTrip(ctx, input.TripID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListCrew(ctx, input.TripID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]CrewResponse, 0, len(items))
		for _, c := range items {
			out = append(out, crewResponse(c))
		}
		return &struct {
			Body []CrewResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unassign-crew",
		Method:      http.MethodDelete,
		Path:        "/trips/{trip_id}/crew/{member_id}",
		Summary:     "Unassign crew member",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TripID   string `path:"trip_id"`
		MemberID string `path:"member_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.UnassignCrew(ctx, input.TripID, input.MemberID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-stop",
		Method:        http.MethodPost,
		Path:          "/trips/{trip_id}/stops",
		Summary:       "Add venue stop",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TripID string         `path:"trip_id"`
		Body   AddStopRequest `json:"body"`
	}) (*struct {
		Body StopResponse `json:"body"`
	}, error) {
		if input.Body.VenueID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "venue_id is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.AddStop(ctx, input.TripID, input.Body.VenueID, input.Body.Position, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body StopResponse `json:"body"`
		}{Body: stopResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-stops",
		Method:      http.MethodGet,
		Path:        "/trips/{trip_id}/stops",
		Summary:     "List trip stops",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TripID string `path:"trip_id"`
	}) (*struct {
		Body []StopResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetTrip(ctx, input.TripID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListStops(ctx, input.TripID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]StopResponse, 0, len(items))
		for _, s := range items {
			out = append(out, stopResponse(s))
		}
		return &struct {
			Body []StopResponse `json:"body"`
		}{Body: out}, nil
	})
}

func registerAssets(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-asset",
		Method:        http.MethodPost,
		Path:          "/seasons/{season_id}/assets",
		Summary:       "Register asset",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SeasonID string               `path:"season_id"`
		Body     RegisterAssetRequest `json:"body"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.RegisterAsset(ctx, engine.RegisterAssetOptions{
			ID:       input.Body.ID,
			SeasonID: input.SeasonID,
			Name:     input.Body.Name,
			Kind:     input.Body.Kind,
			HubID:    input.Body.HubID,
			ActorID:  actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: assetResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-assets",
		Method:      http.MethodGet,
		Path:        "/seasons/{season_id}/assets",
		Summary:     "List assets",
	}, func(ctx context.Context, input *struct {
		SeasonID string `path:"season_id"`
	}) (*struct {
		Body []AssetResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListAssets(ctx, input.SeasonID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]AssetResponse, 0, len(items))
		for _, a := range items {
			out = append(out, assetResponse(a))
		}
		return &struct {
			Body []AssetResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/assets/{asset_id}",
		Summary:     "Get asset",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		a, err := e.Repo.GetAsset(ctx, input.AssetID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: assetResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-asset",
		Method:      http.MethodPost,
		Path:        "/assets/{asset_id}/move",
		Summary:     "Move asset along its lifecycle",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		AssetID string           `path:"asset_id"`
		Body    MoveAssetRequest `json:"body"`
	}) (*struct {
		Body MoveAssetResponse `json:"body"`
	}, error) {
		if input.Body.To == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "to is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, mv, err := e.MoveAsset(ctx, engine.MoveAssetOptions{
			AssetID: input.AssetID,
			To:      input.Body.To,
			TripID:  input.Body.TripID,
			HubID:   input.Body.HubID,
			VenueID: input.Body.VenueID,
			Note:    input.Body.Note,
			ActorID: actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MoveAssetResponse `json:"body"`
		}{Body: MoveAssetResponse{Asset: assetResponse(a), Movement: movementResponse(mv)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "asset-movements",
		Method:      http.MethodGet,
		Path:        "/assets/{asset_id}/movements",
		Summary:     "Asset movement history",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
		Limit   int    `query:"limit" default:"50"`
	}) (*struct {
		Body []MovementResponse `json:"body"`
	}, error) {
		items, err := e.AssetMovements(ctx, input.AssetID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]MovementResponse, 0, len(items))
		for _, m := range items {
			out = append(out, movementResponse(m))
		}
		return &struct {
			Body []MovementResponse `json:"body"`
		}{Body: out}, nil
	})
}

func registerReadiness(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "gameplan-readiness",
		Method:      http.MethodGet,
		Path:        "/gameplan/readiness",
		Summary:     "Gameplan readiness for a week",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		SeasonYear int `query:"season_year" required:"true"`
		WeekNumber int `query:"week_number" required:"true"`
	}) (*struct {
		Body ReadinessResponse `json:"body"`
	}, error) {
		if input.SeasonYear == 0 || input.WeekNumber == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "season_year and week_number are required", nil)
		}
		r := e.EvaluateReadiness(ctx, input.SeasonYear, input.WeekNumber)
		return &struct {
			Body ReadinessResponse `json:"body"`
		}{Body: readinessResponse(r)}, nil
	})
}

func registerRuns(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/runs",
		Summary:     "List optimizer runs",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		SeasonYear int `query:"season_year" required:"true"`
		WeekNumber int `query:"week_number"`
	}) (*struct {
		Body []RunResponse `json:"body"`
	}, error) {
		if input.SeasonYear == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "season_year is required", nil)
		}
		items, err := e.Repo.ListRuns(ctx, input.SeasonYear, input.WeekNumber)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]RunResponse, 0, len(items))
		for _, run := range items {
			out = append(out, runResponse(run))
		}
		return &struct {
			Body []RunResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/runs/{run_id}",
		Summary:     "Get optimizer run",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		RunID string `path:"run_id"`
	}) (*struct {
		Body RunResponse `json:"body"`
	}, error) {
		run, err := e.Repo.GetRun(ctx, input.RunID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RunResponse `json:"body"`
		}{Body: runResponse(run)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-run",
		Method:      http.MethodPost,
		Path:        "/runs/{run_id}/complete",
		Summary:     "Record an optimizer run result",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		RunID string             `path:"run_id"`
		Body  CompleteRunRequest `json:"body"`
	}) (*struct {
		Body RunResponse `json:"body"`
	}, error) {
		if input.Body.Status == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "status is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		run, err := e.CompleteRun(ctx, input.RunID, input.Body.Status, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RunResponse `json:"body"`
		}{Body: runResponse(run)}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Latest events",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" default:"50"`
		SeasonID   string `query:"season_id"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		items, err := e.Repo.LatestEvents(ctx, input.Limit, input.SeasonID, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EventResponse, 0, len(items))
		for _, evt := range items {
			out = append(out, eventResponse(evt))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: out}, nil
	})
}
