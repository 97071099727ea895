// cmd/matchctl/generate.go
package main

import (
	"github.com/spf13/cobra"

	"brokerage-matchmaking/internal/matchmaking/generator"
)

var (
	genLimit   int
	genForce   bool
	genListing string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate matches for a buyer or a seller listing",
}

var generateBuyerCmd = &cobra.Command{
	Use:   "buyer <buyer-id>",
	Short: "Match a buyer against active listings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.core.Generator.GenerateForBuyer(cmd.Context(), args[0], generator.Options{Limit: genLimit, Force: genForce})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var generateSellerCmd = &cobra.Command{
	Use:   "seller <seller-id>",
	Short: "Match one of a seller's listings against active buyers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.core.Generator.GenerateForSeller(cmd.Context(), args[0], genListing, generator.Options{Limit: genLimit, Force: genForce})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.AddCommand(generateBuyerCmd, generateSellerCmd)

	generateCmd.PersistentFlags().IntVarP(&genLimit, "limit", "l", 0, "maximum matches to keep (default from config)")
	generateCmd.PersistentFlags().BoolVarP(&genForce, "force", "f", false, "ignore the regeneration window")
	generateSellerCmd.Flags().StringVar(&genListing, "listing", "", "listing to match")
	_ = generateSellerCmd.MarkFlagRequired("listing")
}
