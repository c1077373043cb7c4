package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"meal-planner/internal/client"
	"meal-planner/internal/shopping"
)

var (
	loginEmail    string
	loginPassword string

	planID     int64
	entryIndex int

	recipeSlug string
	stepFrom   int
	stepTo     int
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session and print its token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		token, err := c.Login(cmd.Context(), loginEmail, loginPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "export MEALPLAN_API_TOKEN=%s\n", token)
		return nil
	},
}

var shoppingCmd = &cobra.Command{
	Use:   "shopping",
	Short: "Show and check off shopping list entries",
}

var shoppingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a plan's shopping list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadList(cmd)
		if err != nil {
			return err
		}
		printList(cmd.OutOrStdout(), model)
		return nil
	},
}

var shoppingToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Check or uncheck one entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadList(cmd)
		if err != nil {
			return err
		}
		index := entryIndex - 1
		err = model.Toggle(cmd.Context(), index)
		var werr *shopping.WriteError
		if errors.As(err, &werr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Entry %d was not saved and has been restored.\n", entryIndex)
		}
		if err != nil {
			return err
		}
		printList(cmd.OutOrStdout(), model)
		return nil
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Edit recipe steps",
}

var stepsReorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Move a recipe step to another position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		rec, err := c.RecipeBySlug(cmd.Context(), recipeSlug)
		if err != nil {
			return err
		}
		form := client.EditRecipe(*rec)
		n := form.Steps.Len()
		if stepFrom < 1 || stepFrom > n || stepTo < 1 || stepTo > n {
			return fmt.Errorf("steps are numbered 1 to %d", n)
		}
		form.Steps = form.Steps.Reorder(stepFrom-1, stepTo-1)

		saved, err := form.Submit(cmd.Context(), c)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", saved.Name)
		for _, st := range saved.Steps {
			fmt.Fprintf(out, "%d. %s\n", st.Order, st.Text)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	shoppingCmd.PersistentFlags().Int64Var(&planID, "plan", 0, "plan id (default: the next plan)")
	shoppingToggleCmd.Flags().IntVar(&entryIndex, "index", 0, "entry number as printed by show")
	_ = shoppingToggleCmd.MarkFlagRequired("index")
	shoppingCmd.AddCommand(shoppingShowCmd, shoppingToggleCmd)

	stepsReorderCmd.Flags().StringVar(&recipeSlug, "recipe", "", "recipe slug")
	stepsReorderCmd.Flags().IntVar(&stepFrom, "from", 0, "current step number")
	stepsReorderCmd.Flags().IntVar(&stepTo, "to", 0, "new step number")
	for _, f := range []string{"recipe", "from", "to"} {
		_ = stepsReorderCmd.MarkFlagRequired(f)
	}
	stepsCmd.AddCommand(stepsReorderCmd)

	rootCmd.AddCommand(loginCmd, shoppingCmd, stepsCmd)
}

func loadList(cmd *cobra.Command) (*shopping.ListModel, error) {
	c, err := apiClient()
	if err != nil {
		return nil, err
	}
	model := shopping.NewListModel(c, logger)
	if err := model.Load(cmd.Context(), planID); err != nil {
		return nil, err
	}
	return model, nil
}

func printList(w io.Writer, model *shopping.ListModel) {
	if plan, ok := model.Plan(); ok {
		fmt.Fprintf(w, "Plan %d: %s to %s\n", plan.ID, plan.StartDate, plan.EndDate)
	}
	entries := model.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nothing to buy.")
		return
	}
	for i, e := range entries {
		mark := " "
		if e.Checked {
			mark = "x"
		}
		if e.Amount != "" {
			fmt.Fprintf(w, "[%s] %d. %s (%s)\n", mark, i+1, e.Name, e.Amount)
		} else {
			fmt.Fprintf(w, "[%s] %d. %s\n", mark, i+1, e.Name)
		}
	}
}
