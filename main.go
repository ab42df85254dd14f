package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"rubric-report-go/canvas"
	"rubric-report-go/config"
	"rubric-report-go/models"
	"rubric-report-go/report"
)

var version = "dev"

var (
	configFile string
	dotEnvFile string
	v          *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "rubric-report",
	Short: "Canvas rubric report generator",
	Long: `rubric-report pulls rubric scores and submission comments from one or more
Canvas instances, aggregates them, and serves tables, chart data and CSV/XLSX
exports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	v = config.New()
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&dotEnvFile, "env-file", ".env", "optional dotenv file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

// loadRuntime resolves config and builds the logger shared by every command
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v, dotEnvFile, configFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newExtractor wires the Canvas client into the rubric extractor
func newExtractor(cfg *config.Config, logger *zap.Logger, progress report.Progress) *report.Extractor {
	open := func(cred models.Credential) (report.Source, error) {
		return canvas.NewClient(cred, canvas.Options{
			PerPage: cfg.Canvas.PerPage,
			Timeout: cfg.Canvas.Timeout,
			Logger:  logger,
		})
	}
	return report.NewExtractor(open, logger, progress)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
