package cli

import (
	"errors"
	"fmt"
	"os"

	"greenpulse-backend/internal/config"
	"greenpulse-backend/internal/infrastructure/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// ErrDriftFound makes reconcile exit non-zero when any project is inconsistent.
var ErrDriftFound = errors.New("funding drift found")

type rootFlags struct {
	sqlitePath  string
	databaseURL string
}

// NewRootCmd builds the ledgerctl command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operator tooling for the GreenPulse funding ledger",
		Long: `ledgerctl runs maintenance tasks against the funding ledger database.

By default it connects to the database configured for APP_ENV
(DATABASE_URL_DEV, DATABASE_URL_TEST or DATABASE_URL_PROD).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.sqlitePath, "sqlite", "", "use a local SQLite file instead of Postgres")
	root.PersistentFlags().StringVar(&flags.databaseURL, "database-url", "", "Postgres DSN (overrides the environment)")

	root.AddCommand(newMigrateCmd(flags))
	root.AddCommand(newReconcileCmd(flags))
	root.AddCommand(newSetStatusCmd(flags))
	root.AddCommand(newSetGoalCmd(flags))
	return root
}

// Execute runs ledgerctl and exits 1 on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (f *rootFlags) open() (*gorm.DB, func(), error) {
	var db *gorm.DB
	var err error
	switch {
	case f.sqlitePath != "":
		db, err = database.OpenSQLite(f.sqlitePath)
	case f.databaseURL != "":
		db, err = database.Open(f.databaseURL)
	default:
		cfg, cerr := config.Load()
		if cerr != nil {
			return nil, nil, cerr
		}
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("no database configured: pass --sqlite or --database-url")
		}
		db, err = database.Open(cfg.DatabaseURL)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}
