package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			version, err := a.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is at version %d.\n", version)
			return nil
		})
	},
}

var importRecipeCmd = &cobra.Command{
	Use:   "import-recipe <url>",
	Short: "Clip a recipe web page and save it",
	Long: `Fetch a web page and save the recipe it contains. Pages publishing
schema.org Recipe JSON-LD are read directly; others need GEMINI_API_KEY.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			rec, err := a.ImportRecipe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as %s (%d ingredients, %d steps).\n",
				rec.Name, rec.Slug, len(rec.Ingredients), len(rec.Steps))
			return nil
		})
	},
}

var sessionsCleanupCmd = &cobra.Command{
	Use:   "sessions-cleanup",
	Short: "Delete expired sessions and join codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return a.Cleanup(cmd.Context())
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, importRecipeCmd, sessionsCleanupCmd)
}

// withApp opens the database (migrating it) for the duration of fn.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
