package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patternmine/spade/internal/service"
	"github.com/patternmine/spade/pkg/config"
	"github.com/patternmine/spade/pkg/utils"
)

var (
	reportConfigPath  string
	reportRunUUID     string
	reportDBType      string
	reportDBPath      string
	reportStorageType string
	reportStoragePath string
)

// reportCmd re-reads a previously persisted run and prints its patterns.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the patterns discovered by a previously persisted run",
	Long: `report looks up a mining run by its UUID in the repository and
prints its top patterns, the same way mine does at the end of a run.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	binName := BinName()
	reportCmd.Example = fmt.Sprintf(`  # Re-print a previous run's patterns
  %s report --run 5f3c1c2e-...`, binName)

	reportCmd.Flags().StringVar(&reportConfigPath, "config", "", "Path to a YAML config file (CLI flags below override its values)")
	reportCmd.Flags().StringVar(&reportRunUUID, "run", "", "Run UUID (required)")
	reportCmd.MarkFlagRequired("run")
	reportCmd.Flags().StringVar(&reportDBType, "db-type", "sqlite", "Database type: postgres, mysql, or sqlite")
	reportCmd.Flags().StringVar(&reportDBPath, "db", "./data/spade.db", "Database DSN or sqlite file path")
	reportCmd.Flags().StringVar(&reportStorageType, "storage-type", "local", "Storage backend: local or cos")
	reportCmd.Flags().StringVar(&reportStoragePath, "storage-path", "./storage", "Local storage base path")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := config.Load(reportConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyReportFlagOverrides(cmd, cfg)

	svc, err := service.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	ctx := context.Background()
	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer svc.Close()

	result, err := svc.Run(ctx, reportRunUUID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	printRunSummary(log, result)
	return nil
}

// applyReportFlagOverrides layers explicitly-passed report flags on top
// of the loaded config.
func applyReportFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("db-type") {
		cfg.Database.Type = reportDBType
	}
	if flags.Changed("db") {
		cfg.Database.Database = reportDBPath
	}
	if flags.Changed("storage-type") {
		cfg.Storage.Type = reportStorageType
	}
	if flags.Changed("storage-path") {
		cfg.Storage.LocalPath = reportStoragePath
	}
}

// printRunSummary prints a human-readable top-N pattern summary, shared
// between mine and report.
func printRunSummary(log utils.Logger, result *service.RunResult) {
	log.Info("=== Run Summary ===")
	log.Info("Run UUID:       %s", result.Run.RunUUID)
	log.Info("Status:         %s", result.Run.Status)
	log.Info("Levels run:     %d", result.Run.LevelsRun)
	log.Info("Patterns found: %d", result.Run.PatternsFound)
	log.Info("")

	log.Info("=== Top Patterns ===")
	for _, p := range result.Patterns {
		log.Info("  %3d. %-40s support=%-6d score=%d", p.Rank, p.Pattern, p.Support, p.Score)
	}
}
