package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tourdeck/internal/app"
	"tourdeck/internal/config"
	"tourdeck/internal/db"
	"tourdeck/internal/domain"
	"tourdeck/internal/engine"
	"tourdeck/internal/migrate"
	"tourdeck/internal/repo"
	"tourdeck/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "td",
	Short: "Tourdeck CLI",
	Long: `Tourdeck coordinates a touring season: trips, crews, equipment assets,
and the weekly optimization runs that plan them.
- Workspace: your .tourdeck directory holding only the database; configs live in the DB.
- Season: the multi-week campaign that owns trips, fleet, and assets.
- Trips: a vehicle and crew visiting venues during one week; statuses go
  draft -> recommended -> confirmed -> in_transit -> on_site -> returning -> completed.
- Assets: trailers, kits, and gear tracked across hubs, trips, and venues
  with an append-only movement history.
- Gameplan: the set of trips for a week; readiness checks flag gaps before
  approval locks the confirmed trips and notifies crews.
- Runs: calls to the optimization engine, guarded by conflict and cooldown rules.
- Event log: diary of every change, view with 'td log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TOURDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("season", "", "season id (overrides config default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("season", rootCmd.PersistentFlags().Lookup("season"))
}

func registerCommands() {
	rootCmd.AddCommand(seasonCmd())
	rootCmd.AddCommand(configCommand())
	rootCmd.AddCommand(fleetCmd())
	rootCmd.AddCommand(tripCmd())
	rootCmd.AddCommand(assetCmd())
	rootCmd.AddCommand(gameplanCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(serveCmd())
}

func seasonCmd() *cobra.Command {
	season := &cobra.Command{Use: "season", Short: "Manage seasons"}
	season.AddCommand(seasonInitCmd())
	season.AddCommand(seasonListCmd())
	season.AddCommand(seasonShowCmd())
	season.AddCommand(seasonUseCmd())
	return season
}

func seasonInitCmd() *cobra.Command {
	var id, label string
	var year int
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a season with default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			if year == 0 {
				year = time.Now().UTC().Year()
			}
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			e := engine.New(conn, config.Default(id, year))
			s, err := e.InitSeason(cmd.Context(), id, year, label, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printJSONOrTable(s)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "season id")
	cmd.Flags().IntVar(&year, "year", 0, "season year (defaults to current year)")
	cmd.Flags().StringVar(&label, "label", "", "display label")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func seasonListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List seasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListSeasons(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func seasonShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Repo.GetSeason(ctx, e.Config.Season.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func seasonUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Set current season for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seasonID := strings.TrimSpace(args[0])
			if seasonID == "" {
				return fmt.Errorf("season id is required")
			}
			workspace := viper.GetString("workspace")
			if err := setEnvValue(filepath.Join(workspace, ".env"), "TOURDECK_SEASON", seasonID); err != nil {
				return err
			}
			fmt.Printf("Set TOURDECK_SEASON=%s in %s/.env\n", seasonID, workspace)
			return nil
		},
	}
	return cmd
}

func configCommand() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect season config",
		Long:  "Config is the rulebook stored in the DB: season length, dispatch cooldowns, optimizer and notification endpoints, and webhook subscriptions. Import from tourdeck.yml if desired.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configImportCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show season config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func configImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import season config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			cfg, err := config.FromYAML(data)
			if err != nil {
				return err
			}
			seasonID := cfg.Season.ID
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if seasonID == "" {
					seasonID = e.Config.Season.ID
				}
				if err := e.Repo.UpsertSeasonConfig(ctx, seasonID, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func fleetCmd() *cobra.Command {
	fleet := &cobra.Command{
		Use:   "fleet",
		Short: "Manage vehicles, hubs, and venues",
	}
	fleet.AddCommand(vehicleAddCmd())
	fleet.AddCommand(vehicleListCmd())
	fleet.AddCommand(hubAddCmd())
	fleet.AddCommand(hubListCmd())
	fleet.AddCommand(venueAddCmd())
	fleet.AddCommand(venueListCmd())
	return fleet
}

func vehicleAddCmd() *cobra.Command {
	var id, name string
	var capacity int
	cmd := &cobra.Command{
		Use:   "vehicle-add",
		Short: "Register a vehicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.AddVehicle(ctx, e.Config.Season.ID, id, name, capacity)
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "vehicle id (optional)")
	cmd.Flags().StringVar(&name, "name", "", "vehicle name")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "seat capacity")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func vehicleListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle-list",
		Short: "List vehicles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListVehicles(ctx, e.Config.Season.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func hubAddCmd() *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "hub-add",
		Short: "Register a hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				h, err := e.AddHub(ctx, id, name)
				if err != nil {
					return err
				}
				return printJSONOrTable(h)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "hub id (optional)")
	cmd.Flags().StringVar(&name, "name", "", "hub name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func hubListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hub-list",
		Short: "List hubs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListHubs(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func venueAddCmd() *cobra.Command {
	var id, name, city string
	cmd := &cobra.Command{
		Use:   "venue-add",
		Short: "Register a venue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.AddVenue(ctx, id, name, city)
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "venue id (optional)")
	cmd.Flags().StringVar(&name, "name", "", "venue name")
	cmd.Flags().StringVar(&city, "city", "", "city")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func venueListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venue-list",
		Short: "List venues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListVenues(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func tripCmd() *cobra.Command {
	trip := &cobra.Command{
		Use:   "trip",
		Short: "Manage trips",
		Long:  "Trips are the weekly outings: a vehicle and crew visiting venues. They flow draft -> recommended -> confirmed, then through in_transit, on_site, returning to completed. Cancelled is an exit.",
	}
	trip.AddCommand(tripCreateCmd())
	trip.AddCommand(tripListCmd())
	trip.AddCommand(tripGetCmd())
	trip.AddCommand(tripStatusCmd())
	trip.AddCommand(tripActionsCmd())
	trip.AddCommand(tripVehicleCmd())
	trip.AddCommand(tripCrewCmd())
	trip.AddCommand(tripStopCmd())
	return trip
}

func tripCreateCmd() *cobra.Command {
	var opts engine.CreateTripOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if opts.SeasonID == "" {
					opts.SeasonID = e.Config.Season.ID
				}
				t, err := e.CreateTrip(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "trip id (optional)")
	cmd.Flags().IntVar(&opts.WeekNumber, "week", 0, "week number")
	cmd.Flags().StringVar(&opts.Status, "status", "", "initial status (draft or recommended)")
	cmd.Flags().StringVar(&opts.VehicleID, "vehicle", "", "vehicle id")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}

func tripListCmd() *cobra.Command {
	var week int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var trips []domain.Trip
				var err error
				if week > 0 {
					trips, err = e.Repo.TripsForWeek(ctx, e.Config.Season.Year, week)
				} else {
					trips, err = e.Repo.ListTrips(ctx, e.Config.Season.ID)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(trips)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Week", "Status", "Vehicle", "Notes"})
				for _, t := range trips {
					vehicle := ""
					if t.VehicleID != nil {
						vehicle = *t.VehicleID
					}
					tw.AppendRow(table.Row{t.ID, t.WeekNumber, t.Status, vehicle, t.Notes})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "week number filter")
	return cmd
}

func tripGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.Repo.GetTrip(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func tripStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <id>",
		Short: "Update trip status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.SetTripStatus(ctx, id, status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func tripActionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions <id>",
		Short: "Show allowed next actions for a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, actions, err := e.TripActions(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"trip_id": t.ID,
					"status":  t.Status,
					"actions": actions,
				})
			})
		},
	}
	return cmd
}

func tripVehicleCmd() *cobra.Command {
	var vehicleID string
	cmd := &cobra.Command{
		Use:   "set-vehicle <id>",
		Short: "Assign or clear the trip vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.AssignVehicle(ctx, id, vehicleID, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "vehicle id (empty clears)")
	return cmd
}

func tripCrewCmd() *cobra.Command {
	crew := &cobra.Command{Use: "crew", Short: "Manage trip crew"}
	crew.AddCommand(crewAssignCmd())
	crew.AddCommand(crewRemoveCmd())
	crew.AddCommand(crewListCmd())
	return crew
}

func crewAssignCmd() *cobra.Command {
	var memberID, memberName, role string
	cmd := &cobra.Command{
		Use:   "assign <trip-id>",
		Short: "Assign a crew member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.AssignCrew(ctx, tripID, memberID, memberName, role, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "member id")
	cmd.Flags().StringVar(&memberName, "name", "", "member name")
	cmd.Flags().StringVar(&role, "role", "", "role (driver, host, tech)")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func crewRemoveCmd() *cobra.Command {
	var memberID string
	cmd := &cobra.Command{
		Use:   "remove <trip-id>",
		Short: "Remove a crew member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.UnassignCrew(ctx, tripID, memberID, viper.GetString("actor-id"))
			})
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "member id")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func crewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <trip-id>",
		Short: "List trip crew",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListCrew(ctx, tripID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func tripStopCmd() *cobra.Command {
	stop := &cobra.Command{Use: "stop", Short: "Manage trip stops"}
	stop.AddCommand(stopAddCmd())
	stop.AddCommand(stopListCmd())
	return stop
}

func stopAddCmd() *cobra.Command {
	var venueID string
	var position int
	cmd := &cobra.Command{
		Use:   "add <trip-id>",
		Short: "Add a venue stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.AddStop(ctx, tripID, venueID, position, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&venueID, "venue", "", "venue id")
	cmd.Flags().IntVar(&position, "position", 0, "stop position (appends if omitted)")
	_ = cmd.MarkFlagRequired("venue")
	return cmd
}

func stopListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <trip-id>",
		Short: "List trip stops",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListStops(ctx, tripID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func assetCmd() *cobra.Command {
	asset := &cobra.Command{
		Use:   "asset",
		Short: "Manage equipment assets",
		Long:  "Assets are the trailers, kits, and gear the season moves around. Statuses go at_hub -> loaded -> in_transit -> on_site -> returning -> at_hub, with rebranding as a maintenance detour. Every move appends a movement record.",
	}
	asset.AddCommand(assetRegisterCmd())
	asset.AddCommand(assetListCmd())
	asset.AddCommand(assetGetCmd())
	asset.AddCommand(assetMoveCmd())
	asset.AddCommand(assetMovementsCmd())
	return asset
}

func assetRegisterCmd() *cobra.Command {
	var opts engine.RegisterAssetOptions
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an asset at a hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if opts.SeasonID == "" {
					opts.SeasonID = e.Config.Season.ID
				}
				a, err := e.RegisterAsset(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "asset id (optional)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "asset name")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "asset kind (trailer, kit, gear)")
	cmd.Flags().StringVar(&opts.HubID, "hub", "", "home hub id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func assetListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListAssets(ctx, e.Config.Season.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Kind", "Status", "Location"})
				for _, a := range items {
					tw.AppendRow(table.Row{a.ID, a.Name, a.Kind, a.Status, assetLocation(a)})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func assetLocation(a domain.Asset) string {
	switch {
	case a.CurrentHubID != nil:
		return "hub:" + *a.CurrentHubID
	case a.CurrentVenueID != nil:
		return "venue:" + *a.CurrentVenueID
	case a.CurrentTripID != nil:
		return "trip:" + *a.CurrentTripID
	}
	return ""
}

func assetGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.Repo.GetAsset(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	return cmd
}

func assetMoveCmd() *cobra.Command {
	var opts engine.MoveAssetOptions
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an asset to a new status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.AssetID = args[0]
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, m, err := e.MoveAsset(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"asset": a, "movement": m})
			})
		},
	}
	cmd.Flags().StringVar(&opts.To, "to", "", "target status")
	cmd.Flags().StringVar(&opts.TripID, "trip", "", "trip id")
	cmd.Flags().StringVar(&opts.HubID, "hub", "", "hub id")
	cmd.Flags().StringVar(&opts.VenueID, "venue", "", "venue id")
	cmd.Flags().StringVar(&opts.Note, "note", "", "note")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func assetMovementsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "movements <id>",
		Short: "Show asset movement history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.AssetMovements(ctx, id, limit)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "n", 50, "number of movements")
	return cmd
}

func gameplanCmd() *cobra.Command {
	gp := &cobra.Command{
		Use:   "gameplan",
		Short: "Weekly gameplan readiness and approval",
	}
	gp.AddCommand(gameplanReadinessCmd())
	gp.AddCommand(gameplanApproveCmd())
	return gp
}

func gameplanReadinessCmd() *cobra.Command {
	var week, year int
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Evaluate readiness for a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			if week == 0 {
				return fmt.Errorf("--week required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if year == 0 {
					year = e.Config.Season.Year
				}
				r := e.EvaluateReadiness(ctx, year, week)
				if viper.GetBool("json") {
					return printJSON(r)
				}
				state := "NOT READY"
				if r.IsReady {
					state = "READY"
				}
				fmt.Printf("Week %d (%d): %s\n", r.WeekNumber, r.SeasonYear, state)
				fmt.Printf("Trips: %d total, %d confirmed, %d unconfirmed\n", r.TotalTrips, r.ConfirmedTrips, r.UnconfirmedTrips)
				for _, reason := range r.Reasons {
					fmt.Printf("  - %s\n", reason)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "week number")
	cmd.Flags().IntVar(&year, "year", 0, "season year (defaults to config)")
	return cmd
}

func gameplanApproveCmd() *cobra.Command {
	var week, year int
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Lock confirmed trips for a week and notify crews",
		RunE: func(cmd *cobra.Command, args []string) error {
			if week == 0 {
				return fmt.Errorf("--week required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if year == 0 {
					year = e.Config.Season.Year
				}
				res, err := e.ApproveGameplan(ctx, year, week, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "week number")
	cmd.Flags().IntVar(&year, "year", 0, "season year (defaults to config)")
	return cmd
}

func runCmd() *cobra.Command {
	run := &cobra.Command{
		Use:   "run",
		Short: "Optimization runs",
		Long:  "Runs call the optimization engine for a week. Only one run may be active per week, and a cooldown applies after each completed run.",
	}
	run.AddCommand(runDispatchCmd())
	run.AddCommand(runListCmd())
	run.AddCommand(runGetCmd())
	run.AddCommand(runCompleteCmd())
	run.AddCommand(runScheduledCmd())
	return run
}

func runDispatchCmd() *cobra.Command {
	var week, year int
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Dispatch an optimization run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if week == 0 {
				return fmt.Errorf("--week required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if year == 0 {
					year = e.Config.Season.Year
				}
				res, err := e.DispatchRun(ctx, year, week, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res.Run)
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "week number")
	cmd.Flags().IntVar(&year, "year", 0, "season year (defaults to config)")
	return cmd
}

func runListCmd() *cobra.Command {
	var week, year int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if year == 0 {
					year = e.Config.Season.Year
				}
				items, err := e.Repo.ListRuns(ctx, year, week)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "week number filter")
	cmd.Flags().IntVar(&year, "year", 0, "season year (defaults to config)")
	return cmd
}

func runGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				run, err := e.Repo.GetRun(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(run)
			})
		},
	}
	return cmd
}

func runCompleteCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Record the outcome of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				run, err := e.CompleteRun(ctx, id, status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(run)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "completed", "final status (completed, failed, partial)")
	return cmd
}

func runScheduledCmd() *cobra.Command {
	var week, year int
	cmd := &cobra.Command{
		Use:   "scheduled",
		Short: "Execute the weekly scheduled run locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res := e.RunScheduled(ctx, year, week)
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "week number (defaults to config)")
	cmd.Flags().IntVar(&year, "year", 0, "season year (defaults to config)")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: trip changes, asset moves, approvals, and runs.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, e.Config.Season.ID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func keysCmd() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	keys.AddCommand(keysCreateCmd())
	keys.AddCommand(keysListCmd())
	keys.AddCommand(keysDeleteCmd())
	return keys
}

func keysCreateCmd() *cobra.Command {
	var actor, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (printed once, stored hashed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor == "" {
				actor = viper.GetString("actor-id")
			}
			secret := "td_live_" + strings.ReplaceAll(uuid.New().String(), "-", "")
			key := domain.APIKey{
				ID:      uuid.New().String(),
				ActorID: actor,
				Name:    name,
				KeyHash: repo.HashAPIKey(secret),
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "actor_id": key.ActorID, "name": key.Name, "key": secret})
				}
				fmt.Printf("Created key %s for %s\n", key.ID, key.ActorID)
				fmt.Printf("Secret (save it now, it is not stored): %s\n", secret)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "actor the key authenticates as")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func keysListCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAPIKeys(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Actor", "Name", "Created"})
				for _, k := range items {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "filter by actor id")
	return cmd
}

func keysDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowActorHeader bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveSeasonAndConfig(cmd.Context(), viper.GetString("season"), 0, r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:              os.Getenv("TOURDECK_JWT_SECRET"),
				AllowLegacyActorHeader: allowActorHeader,
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("TOURDECK_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Tourdeck API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&allowActorHeader, "allow-actor-header", false, "accept X-Actor-Id without a token (dev only)")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveSeasonAndConfig(ctx, viper.GetString("season"), 0, r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	return fn(ctx, r)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
