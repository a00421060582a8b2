package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"salespulse/internal/config"
	"salespulse/internal/dataset"
	"salespulse/internal/logging"
	"salespulse/internal/mcp"
	"salespulse/internal/pipeline"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose  bool
	dataPath string
	cfg      *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "salespulse",
	Short: "Salespulse is a POS transaction-analytics MCP server",
	Long: `An MCP server that analyzes point-of-sale transaction exports: item and
category rankings, basket association rules, seasonal revenue forecasting and
per-item unit demand forecasting.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		if dataPath != "" {
			cfg.DataPath = dataPath
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Salespulse starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		log.Info().Msg("MCP Server starting Stdio loop")
		server := mcp.NewServer(*cfg)
		if err := server.Serve(); err != nil {
			log.Fatal().Err(err).Msg("Server loop failed")
		}
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one analysis batch and print the report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Load(cfg.DataPath)
		if err != nil {
			return fmt.Errorf("loading dataset from %s: %w", cfg.DataPath, err)
		}
		report, err := pipeline.Run(ds, cfg.Analytics)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "directory holding the dataset CSVs (overrides DATA_PATH)")
	rootCmd.AddCommand(reportCmd)
}
