package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finassist/internal/config"
	"finassist/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and print the schema version",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	// Opening the repository already applied pending migrations.
	var (
		dialect storage.Dialect
		dsn     string
	)
	switch s.cfg.DataBackend {
	case config.BackendSQLite:
		dialect, dsn = storage.SQLite, storage.SQLiteDSN(s.cfg.SQLiteDBPath)
	case config.BackendPostgres:
		dialect, dsn = storage.Postgres, s.cfg.DatabaseURL
	default:
		return fmt.Errorf("data backend %q has no schema", s.cfg.DataBackend)
	}

	version, dirty, err := storage.MigrationVersion(dialect, dsn)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d", dialect, version)
	if dirty {
		fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
