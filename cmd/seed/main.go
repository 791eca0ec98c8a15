package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oggyb/social-graph/internal/config"
	"github.com/oggyb/social-graph/internal/db"
	"github.com/oggyb/social-graph/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var minimal bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and load demo data",
		Long: `Clears every table and loads a demo social graph.

By default a random graph of 20 accounts with posts, follows, likes,
comments and messages is generated. --minimal loads a small fixed dataset.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			logger.InitFromConfig(cfg)

			database, err := db.NewDB(cfg)
			if err != nil {
				return err
			}

			if minimal {
				err = db.SeedMinimalTestData(database)
			} else {
				err = db.SeedTestData(database)
			}
			if err != nil {
				logger.Error("failed to seed", "err", err)
				return err
			}

			logger.Info("seeding completed", "minimal", minimal)
			return nil
		},
	}
	cmd.Flags().BoolVar(&minimal, "minimal", false, "load the small deterministic dataset")
	return cmd
}
