package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fitops/reportpipe/internal/database"
	"github.com/fitops/reportpipe/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled reports",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	store := report.NewStore(db)
	reports, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing reports: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tFORMAT\tFREQUENCY\tACTIVE\tNEXT RUN")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\t%s\n",
			r.ID,
			r.Name,
			r.Type,
			r.Format,
			r.Schedule.Frequency,
			r.IsActive,
			formatNextRun(r.NextRunAt),
		)
	}

	return w.Flush()
}

func formatNextRun(t *time.Time) string {
	if t == nil {
		return "due now"
	}
	return t.UTC().Format(time.RFC3339)
}
