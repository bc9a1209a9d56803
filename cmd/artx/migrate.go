package main

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"artx/internal/config"
	"artx/internal/store"

	_ "modernc.org/sqlite"
)

func newMigrateCmd(cfg *config.Config, global *globalOptions) *cobra.Command {
	var dryRun bool
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect collection index schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			indexPath := store.ResolveIndexPath(cfg.DataDir, cfg.IndexPath)

			if inspect || dryRun {
				return writeMigrationPlan(indexPath, global)
			}

			// Opening the store applies pending migrations.
			st, err := store.Open(cfg.DataDir, cfg.IndexPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := st.Close(); err != nil {
				return err
			}

			if global.structured() {
				return writeMigrationPlan(indexPath, global)
			}
			fmt.Println("Migrations applied successfully.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status")

	return cmd
}

func writeMigrationPlan(indexPath string, global *globalOptions) error {
	db, err := openRawDB(indexPath)
	if err != nil {
		return err
	}
	defer db.Close()

	plan, err := store.MigrationPlan(db)
	if err != nil {
		return fmt.Errorf("inspect migrations: %w", err)
	}

	if global.structured() {
		return writeJSON(plan)
	}

	fmt.Printf("Current version: %d\n", plan.CurrentVersion)
	fmt.Printf("Available version: %d\n", plan.AvailableVersion)
	if len(plan.Pending) == 0 {
		fmt.Println("No pending migrations.")
	} else {
		fmt.Printf("Pending migrations: %d\n", len(plan.Pending))
		for _, m := range plan.Pending {
			fmt.Printf("  %d: %s\n", m.Version, m.Description)
		}
	}
	return nil
}

func openRawDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("index path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: path}
	return sql.Open("sqlite", u.String())
}
