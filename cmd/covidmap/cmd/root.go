// Package cmd provides the CLI commands for covidmap.
package cmd

import (
	"github.com/spf13/cobra"

	"covidmap/internal/config"
	"covidmap/internal/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile string
	verbose bool

	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd builds the covidmap command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "covidmap",
		Short: "Aggregate daily COVID-19 country metrics for a world map",
		Long: `covidmap downloads the daily JHU CSSE report, sums it per country,
joins ISO alpha-3 codes and prints or exports the result.

Examples:
  covidmap report
  covidmap report --metric Deaths --date 01-01-2021 --format markdown
  covidmap report --source timeseries --sqlite covid.db
  covidmap codes
  covidmap verify report.md`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file (defaults apply when empty)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newReportCmd(a))
	root.AddCommand(newCodesCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newVerifyCmd(a))

	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()

	if a.cfgFile != "" {
		loaded, err := config.LoadConfig(a.cfgFile)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	a.cfg = cfg
	a.log = logger.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	return nil
}
