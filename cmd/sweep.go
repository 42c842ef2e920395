package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api/scheduler"
	"github.com/lengapp/leng-api/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge soft deleted pages once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := config.Load(envFile)
		client, db, err := connect(cmd.Context(), conf)
		if err != nil {
			return err
		}
		defer disconnect(client)

		purged, err := scheduler.NewScheduler(db, nil).Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		zap.S().Infow("sweep complete", "purged", purged)
		return nil
	},
}
