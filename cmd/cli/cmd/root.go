package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/patternmine/spade/pkg/utils"
)

var (
	// Global flags
	verbose bool
	logger  utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "spade",
	Short: "A sequential pattern mining tool",
	Long: `spade is a CLI tool for discovering frequent sequential patterns in
event-sequence data using the SPADE algorithm (vertical id-lists and
BFS equivalence-class expansion).

It ingests delimited occurrence files, mines patterns down to a minimum
support threshold, and persists the results for later retrieval.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	binName := BinName()
	rootCmd.Example = `  # Mine patterns from an occurrence file
  ` + binName + ` mine -i ./testdata/occurrences.csv --min-support 2

  # Cap the number of BFS levels and export a report
  ` + binName + ` mine -i ./data.csv --max-levels 4 --export reports/run.txt

  # Re-read a previously persisted run
  ` + binName + ` report --run 5f3c1c2e-...`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
