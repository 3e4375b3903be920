package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MohaMazouz/latewatch/internal/config"
	"github.com/MohaMazouz/latewatch/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			dbPath, err := config.DatabasePath()
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			fmt.Printf("Database at %s is at schema version %d\n", dbPath, storage.ExpectedSchemaVersion)
			return nil
		},
	}
}
