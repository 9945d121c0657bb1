package cmd

import (
	"marketplace-auth/pkg/database"
	"marketplace-auth/pkg/utils"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := utils.LoadConfig()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			if err := migrateUp(config.Database.URL()); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := utils.LoadConfig()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			return withMigrator(config.Database.URL(), func(m *database.Migrator) error {
				if err := m.Down(); err != nil {
					return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
				}
				cmd.Println("Migrations rolled back")
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := utils.LoadConfig()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			return withMigrator(config.Database.URL(), func(m *database.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
				}
				cmd.Printf("version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	return migrateCmd
}

func migrateUp(databaseURL string) error {
	return withMigrator(databaseURL, func(m *database.Migrator) error {
		if err := m.Up(); err != nil {
			return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
		}
		return nil
	})
}

func withMigrator(databaseURL string, fn func(*database.Migrator) error) error {
	m, err := database.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	defer m.Close()
	return fn(m)
}
