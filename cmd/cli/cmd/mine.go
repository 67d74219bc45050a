package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/patternmine/spade/internal/service"
	"github.com/patternmine/spade/pkg/config"
)

var (
	mineConfigPath   string
	mineInputFile    string
	mineMinSupport   int
	mineMaxLevels    int
	mineTopN         int
	mineRunUUID      string
	mineExportKey    string
	mineExportFormat string
	mineDBType       string
	mineDBPath       string
	mineStorageType  string
	mineStoragePath  string
	mineDataDir      string
	mineWorkers      int
	mineStrict       bool
)

// mineCmd represents the mine command
var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine frequent sequential patterns from an occurrence file",
	Long: `mine ingests a delimited occurrence file, runs the SPADE BFS
expansion loop to a fixed point (or a configured level cap), persists the
discovered patterns, and prints a top-N summary.`,
	RunE: runMine,
}

func init() {
	rootCmd.AddCommand(mineCmd)

	binName := BinName()
	mineCmd.Example = fmt.Sprintf(`  # Mine with a support floor of 2
  %s mine -i ./testdata/occurrences.csv --min-support 2

  # Cap BFS depth and export a text report
  %s mine -i ./data.csv --max-levels 3 --export reports/run.txt`, binName, binName)

	mineCmd.Flags().StringVar(&mineConfigPath, "config", "", "Path to a YAML config file (CLI flags below override its values)")
	mineCmd.Flags().StringVarP(&mineInputFile, "input", "i", "", "Input occurrence file (required)")
	mineCmd.MarkFlagRequired("input")

	mineCmd.Flags().IntVar(&mineMinSupport, "min-support", 2, "Minimum support threshold")
	mineCmd.Flags().IntVar(&mineMaxLevels, "max-levels", 0, "Maximum BFS levels (0 = run to a fixed point)")
	mineCmd.Flags().IntVarP(&mineTopN, "top", "n", 20, "Number of top patterns to report")
	mineCmd.Flags().StringVar(&mineRunUUID, "uuid", "", "Run UUID (auto-generated if empty)")
	mineCmd.Flags().StringVar(&mineExportKey, "export", "", "Storage key to export a rendered report to (disabled if empty)")
	mineCmd.Flags().StringVar(&mineExportFormat, "export-format", "text", "Export rendering: text or json")
	mineCmd.Flags().StringVar(&mineDBType, "db-type", "sqlite", "Database type: postgres, mysql, or sqlite")
	mineCmd.Flags().StringVar(&mineDBPath, "db", "./data/spade.db", "Database DSN or sqlite file path")
	mineCmd.Flags().StringVar(&mineStorageType, "storage-type", "local", "Storage backend: local or cos")
	mineCmd.Flags().StringVar(&mineStoragePath, "storage-path", "./storage", "Local storage base path")
	mineCmd.Flags().StringVar(&mineDataDir, "data-dir", "./data", "Working data directory")
	mineCmd.Flags().IntVar(&mineWorkers, "workers", 0, "Worker pool size (0 = package default)")
	mineCmd.Flags().BoolVar(&mineStrict, "strict", false, "Fail on the first malformed input line instead of skipping it")
}

func runMine(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	if _, err := os.Stat(mineInputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", mineInputFile)
	}

	runUUID := mineRunUUID
	if runUUID == "" {
		runUUID = uuid.NewString()
	}

	cfg, err := config.Load(mineConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyMineFlagOverrides(cmd, cfg)

	svc, err := service.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	ctx := context.Background()
	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer svc.Close()

	input, err := os.Open(mineInputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer input.Close()

	log.Info("=== SPADE Mining ===")
	log.Info("Input file:   %s", mineInputFile)
	log.Info("Min support:  %d", cfg.Mining.MinSupport)
	log.Info("Run UUID:     %s", runUUID)
	log.Info("")

	result, err := svc.Mine(ctx, input, service.RunOptions{
		RunUUID:      runUUID,
		InputSource:  mineInputFile,
		MinSupport:   cfg.Mining.MinSupport,
		MaxLevels:    cfg.Mining.MaxLevels,
		TopN:         cfg.Mining.TopN,
		ExportKey:    mineExportKey,
		ExportFormat: mineExportFormat,
	})
	if err != nil {
		return fmt.Errorf("mining failed: %w", err)
	}

	printRunSummary(log, result)
	return nil
}

// applyMineFlagOverrides layers explicitly-passed mine flags on top of
// the loaded config, so a --config file supplies defaults that CLI
// flags can still override on a per-run basis.
func applyMineFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("data-dir") {
		cfg.Mining.DataDir = mineDataDir
	}
	if flags.Changed("workers") {
		cfg.Mining.MaxWorker = mineWorkers
	}
	if flags.Changed("min-support") {
		cfg.Mining.MinSupport = mineMinSupport
	}
	if flags.Changed("max-levels") {
		cfg.Mining.MaxLevels = mineMaxLevels
	}
	if flags.Changed("top") {
		cfg.Mining.TopN = mineTopN
	}
	if flags.Changed("strict") {
		cfg.Mining.StrictInput = mineStrict
	}
	if flags.Changed("db-type") {
		cfg.Database.Type = mineDBType
	}
	if flags.Changed("db") {
		cfg.Database.Database = mineDBPath
	}
	if flags.Changed("storage-type") {
		cfg.Storage.Type = mineStorageType
	}
	if flags.Changed("storage-path") {
		cfg.Storage.LocalPath = mineStoragePath
	}
}
