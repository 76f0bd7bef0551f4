package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fellowmatch/config"
	"fellowmatch/infra/store"
	"fellowmatch/infra/store/pebblestore"
	"fellowmatch/infra/store/sqlstore"
)

var importPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy fellowships, applications and rankings from a portal SQLite database",
	Long: `Copy fellowships, applications and rankings from a portal SQLite
database into the engine's pebble store. Existing rankings of the
imported owners are replaced; stored matches are left alone.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importPath, "sqlite", "", "portal database file")
	_ = importCmd.MarkFlagRequired("sqlite")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importPath == "" {
		return errors.New("--sqlite is required")
	}
	if cfg.Store.Driver != config.DriverPebble {
		return errors.Newf("import needs the %s store driver, configured: %s", config.DriverPebble, cfg.Store.Driver)
	}

	src, err := sqlstore.Open(importPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := pebblestore.Open(cfg.Store.PebbleDir)
	if err != nil {
		return err
	}
	defer dst.Close()

	stats, err := store.Copy(cmd.Context(), dst, src)
	if err != nil {
		return errors.Wrap(err, "import")
	}

	logger.Info("import finished",
		zap.String("from", importPath),
		zap.Int("fellowships", stats.Fellowships),
		zap.Int("applications", stats.Applications),
		zap.Int("students", stats.Students),
	)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d fellowships, %d applications, %d students\n",
		stats.Fellowships, stats.Applications, stats.Students)
	return err
}
