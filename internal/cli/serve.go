package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fitops/reportpipe/internal/aggregator"
	"github.com/fitops/reportpipe/internal/artifact"
	"github.com/fitops/reportpipe/internal/config"
	"github.com/fitops/reportpipe/internal/database"
	"github.com/fitops/reportpipe/internal/delivery"
	"github.com/fitops/reportpipe/internal/metrics"
	"github.com/fitops/reportpipe/internal/pipeline"
	"github.com/fitops/reportpipe/internal/render"
	"github.com/fitops/reportpipe/internal/report"
	"github.com/fitops/reportpipe/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report scheduler daemon",
	Long: `Start the background daemon that polls for due report schedules and
runs the report pipeline for each one.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	sched, err := buildScheduler(cmd.Context(), cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build pipeline")
	}

	sched.Start()
	defer sched.Stop()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Address, Handler: mux}

		go func() {
			log.Info().Str("addr", cfg.Metrics.Address).Msg("Metrics listener started")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Metrics listener failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	return nil
}

// buildScheduler wires the record store, pipeline and scheduler from
// configuration.
func buildScheduler(ctx context.Context, cfg *config.Config, db *database.DB) (*scheduler.Scheduler, error) {
	store := report.NewStore(db)

	uploader, err := artifact.NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if uploader == nil {
		log.Warn().Msg("Artifact storage not configured, reports will be delivered without download URLs")
	}
	if !cfg.Email.Configured() {
		log.Warn().Msg("Email transport not configured, report delivery will fail soft")
	}

	orch := pipeline.NewOrchestrator(
		aggregator.New(cfg.Sources),
		render.New(),
		uploader,
		delivery.NewMailer(cfg.Email),
		store,
		pipeline.NewHistoryStore(db),
	)

	return scheduler.New(store, orch, scheduler.Config{
		PollInterval: cfg.Scheduler.PollInterval,
		RunTimeout:   cfg.Scheduler.RunTimeout,
	}), nil
}
