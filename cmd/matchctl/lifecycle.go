// cmd/matchctl/lifecycle.go
package main

import (
	"time"

	"github.com/spf13/cobra"

	"brokerage-matchmaking/internal/matchmaking/lifecycle"
	"brokerage-matchmaking/internal/models"
)

var (
	expireDays  int
	statsRole   string
	listStatus  string
	listMin     int
	listLimit   int
	statusActor string
	statusNotes string
)

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire open matches older than the match TTL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		days := expireDays
		if days <= 0 {
			days = s.cfg.Matchmaking.MatchTTLDays
		}
		n, err := s.core.Lifecycle.ExpireStale(cmd.Context(), time.Duration(days)*24*time.Hour)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{"expired": n, "days": days})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show match statistics for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.core.Lifecycle.GetStatistics(cmd.Context(), args[0], models.Role(statsRole))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), st)
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details <match-id>",
	Short: "Show a match with both parties, feedback and interactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		d, err := s.core.Lifecycle.GetMatchDetails(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), d)
	},
}

var listCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List a user's matches, best score first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		matches, err := s.core.Lifecycle.ListMatches(cmd.Context(), args[0], models.Role(statsRole), lifecycle.Filter{
			Status:   models.MatchStatus(listStatus),
			MinScore: listMin,
			Limit:    listLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), matches)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <match-id> <status>",
	Short: "Move a match to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := s.core.Lifecycle.UpdateStatus(cmd.Context(), lifecycle.StatusUpdate{
			MatchID: args[0],
			Status:  models.MatchStatus(args[1]),
			UserID:  statusActor,
			Notes:   statusNotes,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), m)
	},
}

func init() {
	rootCmd.AddCommand(expireCmd, statsCmd, detailsCmd, listCmd, statusCmd)

	expireCmd.Flags().IntVar(&expireDays, "days", 0, "age in days after which open matches expire (default matchmaking.match_ttl_days)")

	for _, c := range []*cobra.Command{statsCmd, listCmd} {
		c.Flags().StringVar(&statsRole, "role", string(models.RoleBuyer), "buyer, seller or admin")
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "only matches in this status")
	listCmd.Flags().IntVar(&listMin, "min-score", 0, "only matches scoring at least this")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum matches to list")

	statusCmd.Flags().StringVar(&statusActor, "user", "", "user performing the change")
	statusCmd.Flags().StringVar(&statusNotes, "notes", "", "notes stored on the match")
	_ = statusCmd.MarkFlagRequired("user")
}
