package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"meal-planner/internal/client"
	"meal-planner/internal/config"
	"meal-planner/internal/logging"
)

var (
	apiURL   string
	apiToken string
	logLevel string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mealplan",
	Short: "Manage recipes, plans and shopping lists",
	Long: `mealplan administers a meal planner database and talks to a running
mealplan-server.

Local commands (migrate, import-recipe, sessions-cleanup) open the database
named by DATABASE_PATH. The others call the API at MEALPLAN_API_URL with the
token in MEALPLAN_API_TOKEN.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logLevel)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (default $MEALPLAN_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "session token (default $MEALPLAN_API_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
}

// apiClient builds a client from the environment and the persistent flags.
func apiClient() (*client.Client, error) {
	cfg, err := config.ClientFromEnv()
	if err != nil {
		return nil, err
	}
	base, token := cfg.APIURL, cfg.APIToken
	if apiURL != "" {
		base = apiURL
	}
	if apiToken != "" {
		token = apiToken
	}
	return client.New(base, token), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
