package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/config"
	"github.com/lengapp/leng-api/databases"
)

func seedPlansCmd() *cobra.Command {
	var file string
	command := &cobra.Command{
		Use:   "seed-plans",
		Short: "Upsert the plan catalog from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := config.LoadPlanCatalog(file)
			if err != nil {
				return err
			}
			conf := config.Load(envFile)
			client, db, err := connect(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer disconnect(client)

			inserted, err := databases.UpsertPlans(cmd.Context(), databases.NewPlanDatabase(db), plans)
			if err != nil {
				return err
			}
			zap.S().Infow("plan catalog seeded", "plans", len(plans), "inserted", inserted)
			return nil
		},
	}
	command.Flags().StringVar(&file, "file", "plans.yaml", "path to the plan catalog")
	return command
}
