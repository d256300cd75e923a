package main

import (
	"fmt"

	"foodshare/internal/seed"

	"github.com/spf13/cobra"
)

var seedOpts struct {
	users    int
	listings int
	seed     int64
	preset   string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with demo users and listings",
	Long: `Populate the store with demo data. Usage:

	foodshare-admin seed --users 50 --listings 200
	foodshare-admin seed --preset seeds/brooklyn.yml
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		var summary *seed.Summary
		if seedOpts.preset != "" {
			preset, err := seed.LoadPreset(seedOpts.preset)
			if err != nil {
				return err
			}
			summary, err = preset.Apply(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("preset seeding failed: %w", err)
			}
		} else {
			summary, err = seed.Run(cmd.Context(), store, seed.Options{
				Users:    seedOpts.users,
				Listings: seedOpts.listings,
				Seed:     seedOpts.seed,
			})
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
		}

		cmd.Printf("seeded %s\n", summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedOpts.users, "users", 20, "number of users to create")
	seedCmd.Flags().IntVar(&seedOpts.listings, "listings", 60, "number of listings to create")
	seedCmd.Flags().Int64Var(&seedOpts.seed, "seed", 1, "random seed")
	seedCmd.Flags().StringVar(&seedOpts.preset, "preset", "", "YAML preset to apply instead of random data")
}
