package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mihklz/casetrail/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the subscription and audit schema",
		Long: "migrate applies PostgreSQL migrations from --path when --dsn is set, " +
			"or creates the SQLite schema in --sqlite.",
		Args: cobra.NoArgs,
	}
	dsn := cmd.Flags().String("dsn", "", "PostgreSQL connection string")
	sqlitePath := cmd.Flags().String("sqlite", "", "SQLite database path")
	path := cmd.Flags().String("path", "migrations", "PostgreSQL migrations directory")
	cmd.MarkFlagsMutuallyExclusive("dsn", "sqlite")
	cmd.MarkFlagsOneRequired("dsn", "sqlite")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if *sqlitePath != "" {
			db, err := repository.NewSQLiteDB(ctx, *sqlitePath)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "sqlite schema ready in %s\n", *sqlitePath)
			return nil
		}

		db, err := repository.NewPostgresDB(ctx, *dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repository.Migrate(db.GetConnection(), *path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "postgres migrations applied")
		return nil
	}
	return cmd
}
