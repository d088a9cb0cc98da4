// Command htwatch watches live football fixtures and sends a Telegram alert
// when a match reaches half-time at 0-0 and both teams' scoring history
// suggests goals in the second half.
//
// Usage:
//
//	htwatch run                       # daily schedule, poll loop, optional status API
//	htwatch run --dry-run             # log alerts instead of sending them
//	htwatch check                     # one poll cycle now, ignoring the schedule
//	htwatch backfill --season 2025    # append finished fixtures to the dataset
//	htwatch features --home 611 --away 645
//	htwatch window                    # today's fixtures and active window
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/halftime-watch/internal/admission"
	"github.com/albapepper/halftime-watch/internal/api"
	"github.com/albapepper/halftime-watch/internal/api/handler"
	"github.com/albapepper/halftime-watch/internal/cache"
	"github.com/albapepper/halftime-watch/internal/config"
	"github.com/albapepper/halftime-watch/internal/decision"
	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/fixture"
	"github.com/albapepper/halftime-watch/internal/history"
	"github.com/albapepper/halftime-watch/internal/notifications"
	"github.com/albapepper/halftime-watch/internal/provider/apifootball"
	"github.com/albapepper/halftime-watch/internal/seed"
)

var version = "dev"

var (
	logLevel = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
)

func main() {
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "htwatch",
		Short:         "Half-time 0-0 alert bot",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(backfillCmd())
	root.AddCommand(featuresCmd())
	root.AddCommand(windowCmd())

	if err := root.Execute(); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Error("Invalid configuration", "key", cfgErr.Key, "error", cfgErr.Reason)
		} else {
			logger.Error("Command failed", "error", err)
		}
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// Wiring
// --------------------------------------------------------------------------

type app struct {
	cfg    *config.Config
	client *apifootball.Client
	store  *history.Store
	sink   decision.Sink
}

// withApp loads configuration, builds the shared collaborators and runs fn
// under a context cancelled on SIGINT/SIGTERM. needSink controls whether a
// notification sink is built.
func withApp(dryRun, needSink bool, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.Options{DryRun: dryRun || !needSink})
	if err != nil {
		return err
	}
	logLevel.Set(cfg.LogLevel)

	a := &app{
		cfg:    cfg,
		client: apifootball.NewClient(cfg.APIFootballBaseURL, cfg.APIFootballKey, cfg.APIRequestsPerMin, cfg.RequestTimeout, logger),
		store:  history.NewStore(history.NewCSVDataset(cfg.DatasetPath)),
	}

	stats, err := a.store.Load()
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded",
		"path", cfg.DatasetPath, "rows", stats.Rows, "teams", stats.Teams,
		"incomplete", stats.Incomplete, "duplicates", stats.Duplicates)

	switch {
	case !needSink:
	case dryRun:
		a.sink = notifications.NewLogSender(logger)
	default:
		sender, err := notifications.NewTelegramSender(notifications.TelegramOptions{
			Token:   cfg.TelegramToken,
			ChatID:  cfg.TelegramChatID,
			Timeout: cfg.RequestTimeout,
		}, logger)
		if err != nil {
			return &config.ConfigurationError{Key: "TELEGRAM_TOKEN", Reason: err.Error()}
		}
		a.sink = sender
	}

	return fn(ctx, a)
}

func (a *app) poller(digest bool) *fixture.Poller {
	deps := fixture.Deps{
		Source:    a.client,
		Store:     a.store,
		Admitter:  admission.New(a.store, logger),
		Evaluator: decision.NewEngine(a.sink, logger),
	}
	if digest {
		deps.Digest = a.sink
	}
	return fixture.NewPoller(deps, fixture.Options{
		Leagues:        a.cfg.LeagueIDs(),
		Season:         a.cfg.Season,
		Location:       a.cfg.Location,
		PollInterval:   a.cfg.PollInterval,
		RequestTimeout: a.cfg.RequestTimeout,
	}, logger)
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var dryRun bool
	var statusAddr string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduled poll loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dryRun, true, func(ctx context.Context, a *app) error {
				p := a.poller(a.cfg.DailyDigest)

				addr := a.cfg.StatusAddr
				if statusAddr != "" {
					addr = statusAddr
				}
				if addr != "" {
					stop := startStatusServer(addr, p, a.cfg)
					defer stop()
				}

				logger.Info("Starting halftime-watch",
					"version", version, "dry_run", dryRun,
					"leagues", len(a.cfg.Leagues), "dataset", a.cfg.DatasetPath)
				return p.Run(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log notifications instead of sending them")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "Status API listen address (overrides STATUS_ADDR)")
	return cmd
}

func startStatusServer(addr string, p *fixture.Poller, cfg *config.Config) func() {
	appCache := cache.New(true)
	h := handler.New(p, appCache, version, logger)
	router := api.NewRouter(h, api.Options{
		CORSAllowOrigins:  cfg.CORSAllowOrigins,
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
	}, logger)
	srv := api.NewServer(addr, router)

	go func() {
		logger.Info("Status API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status API failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Status API shutdown error", "error", err)
		}
		appCache.Close()
	}
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single poll cycle now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dryRun, true, func(ctx context.Context, a *app) error {
				result := a.poller(false).RunCycle(ctx)
				for _, e := range result.Errors {
					logger.Error("cycle error", "error", e)
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
				if result.Abandoned {
					return fmt.Errorf("poll cycle abandoned")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log notifications instead of sending them")
	return cmd
}

// --------------------------------------------------------------------------
// backfill command
// --------------------------------------------------------------------------

func backfillCmd() *cobra.Command {
	var season, workers int
	var leagues []int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Append finished fixtures of a season to the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, false, func(ctx context.Context, a *app) error {
				if !cmd.Flags().Changed("season") {
					season = a.cfg.Season
				}
				ids := a.cfg.LeagueIDs()
				if len(leagues) > 0 {
					ids = leagues
				}

				start := time.Now()
				result := seed.Backfill(ctx, a.client, admission.New(a.store, logger), ids, season, workers, logger)
				logger.Info("Backfill finished", "duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("backfill error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season year (defaults to SEASON)")
	cmd.Flags().IntSliceVar(&leagues, "league", nil, "League id to backfill (repeatable; defaults to all configured)")
	cmd.Flags().IntVar(&workers, "workers", 2, "Concurrent league fetches")
	return cmd
}

// --------------------------------------------------------------------------
// features command
// --------------------------------------------------------------------------

func featuresCmd() *cobra.Command {
	var home, away string
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print the feature set for a home/away pairing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if home == "" || away == "" {
				return fmt.Errorf("--home and --away are required")
			}
			return withApp(false, false, func(ctx context.Context, a *app) error {
				fs := features.Compute(a.store, home, away)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "home_team_home_avg      %s (%d matches)\n", features.FormatAvg(fs.HomeTeamHomeAvg), len(a.store.HomeGoals(home)))
				fmt.Fprintf(out, "away_team_away_avg      %s (%d matches)\n", features.FormatAvg(fs.AwayTeamAwayAvg), len(a.store.AwayGoals(away)))
				fmt.Fprintf(out, "combined_home_away      %s (threshold %.1f)\n", features.FormatAvg(fs.CombinedHomeAway), decision.Threshold)
				fmt.Fprintf(out, "home_team_avg           %s\n", features.FormatAvg(fs.HomeTeamAvg))
				fmt.Fprintf(out, "away_team_avg           %s\n", features.FormatAvg(fs.AwayTeamAvg))
				fmt.Fprintf(out, "home_no_goal_last5      %s\n", fs.HomeNoGoalLast5)
				fmt.Fprintf(out, "away_no_goal_last5      %s\n", fs.AwayNoGoalLast5)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&home, "home", "", "Home team id")
	cmd.Flags().StringVar(&away, "away", "", "Away team id")
	return cmd
}

// --------------------------------------------------------------------------
// window command
// --------------------------------------------------------------------------

func windowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "window",
		Short: "Discover today's fixtures and print the active window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, false, func(ctx context.Context, a *app) error {
				res, err := a.poller(false).Discover(ctx, time.Now())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, res.Summary())
				for _, m := range res.Fixtures {
					fmt.Fprintf(out, "%s  %-28s %s vs %s\n",
						m.Kickoff.In(a.cfg.Location).Format("15:04"), m.League.Name, m.Home.Name, m.Away.Name)
				}
				return nil
			})
		},
	}
}
