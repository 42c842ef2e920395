// Package cmd holds the leng-api command line.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/config"
	"github.com/lengapp/leng-api/databases"
)

var envFile string

// rootCmd serves the API when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "leng-api",
	Short: "leng link-in-bio backend",
	Example: `leng-api
leng-api serve --env-file .env.production
leng-api sweep
leng-api seed-plans --file plans.yaml`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, sweepCmd, seedPlansCmd(), hashAdminKeyCmd)
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}

// connect opens the database for the one-shot commands
func connect(ctx context.Context, conf *config.Config) (databases.ClientHelper, databases.DatabaseHelper, error) {
	client, err := databases.NewClient(conf)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}
	return client, databases.NewDatabase(conf, client), nil
}

func disconnect(client databases.ClientHelper) {
	if err := client.Disconnect(context.Background()); err != nil {
		zap.S().Warnw("failed to disconnect from database", "error", err)
	}
}
