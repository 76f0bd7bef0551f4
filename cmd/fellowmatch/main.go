package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fellowmatch/config"
	"fellowmatch/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fellowmatch",
	Short: "Top-2 mutual interest fellowship matching engine",
	Long: `fellowmatch assigns students to fellowships with a restricted
deferred-acceptance algorithm: a student is only placed where the
fellowship is among the student's top two choices and the student is
among the fellowship's top two candidates.

Run "fellowmatch serve" to start the gRPC engine, or use the other
commands against the local data directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return errors.Wrap(err, "initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "fellowmatch.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		serveCmd,
		runCmd,
		matchesCmd,
		prefsCmd,
		registerCmd,
		unregisterCmd,
		applyCmd,
		withdrawCmd,
		importCmd,
		historyCmd,
		verifyCmd,
		journalCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
