package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fitops/reportpipe/internal/database"
)

var runCmd = &cobra.Command{
	Use:   "run <report-id>",
	Short: "Run one scheduled report immediately",
	Long: `Run a report right now, regardless of its schedule. The report's
next_run_at is advanced exactly as it would be for a scheduled run.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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

	result, err := sched.RunNow(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("running report: %w", err)
	}

	fmt.Printf("Report %s completed in %s\n", result.ReportID, result.Duration.Round(time.Millisecond))
	fmt.Printf("  artifact: %d bytes\n", result.ArtifactBytes)
	if result.DownloadURL != "" {
		fmt.Printf("  download: %s\n", result.DownloadURL)
	}
	if result.EmailSent {
		fmt.Println("  email:    sent")
	} else {
		fmt.Printf("  email:    not sent (%s)\n", result.DeliveryError)
	}

	return nil
}
