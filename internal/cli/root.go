package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fitops/reportpipe/internal/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reportpipe",
	Short: "Scheduled report pipeline for gym operations",
	Long: `Reportpipe generates and delivers scheduled operational reports:

  - Polls for due report schedules and runs each one in the background
  - Aggregates data from the members, revenue, classes, equipment and
    system services
  - Renders PDF, Excel or CSV artifacts
  - Uploads artifacts to object storage and emails them to recipients

Start the daemon:
  reportpipe serve

Run one report immediately:
  reportpipe run <report-id>`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./reportpipe.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig loads configuration, falling back to defaults when no config
// file exists.
func loadConfig() *config.Config {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		log.Warn().Err(err).Msg("No usable config file found, using defaults")
		cfg = config.Default()
	}
	return cfg
}

// setupLogging configures zerolog based on verbosity and environment.
func setupLogging() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
