// cmd/matchctl/migrate.go
package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the matchmaking tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.core.Store.Migrate(cmd.Context()); err != nil {
			return err
		}
		s.log.Info("schema migrated", nil)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
