package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	requirementsProject string
	deselect            bool
)

var requirementsCmd = &cobra.Command{
	Use:   "requirements",
	Short: "Manage functional requirement groups",
}

var requirementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the requirement groups of a project",
	Args:  cobra.NoArgs,
	RunE:  runRequirementsList,
}

var requirementsSelectCmd = &cobra.Command{
	Use:   "select [id...]",
	Short: "Select requirement groups for generation",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRequirementsSelect,
}

func init() {
	requirementsListCmd.Flags().StringVarP(&requirementsProject, "project", "p", "", "project id (required)")
	_ = requirementsListCmd.MarkFlagRequired("project")
	requirementsSelectCmd.Flags().BoolVar(&deselect, "off", false, "deselect instead of select")

	requirementsCmd.AddCommand(requirementsListCmd)
	requirementsCmd.AddCommand(requirementsSelectCmd)
	rootCmd.AddCommand(requirementsCmd)
}

func runRequirementsList(cmd *cobra.Command, _ []string) error {
	groups, err := services.Requirements.List(cmd.Context(), requirementsProject)
	if err != nil {
		return fmt.Errorf("list requirements: %w", err)
	}
	if len(groups) == 0 {
		cmd.Println("No requirements.")
		return nil
	}

	for _, g := range groups {
		mark := " "
		if g.IsSelected {
			mark = "x"
		}
		cmd.Printf("[%s] FR-%03d %s  (%s)\n", mark, g.Number, g.Group, g.ID)
	}
	return nil
}

func runRequirementsSelect(cmd *cobra.Command, args []string) error {
	if err := services.Requirements.Select(cmd.Context(), args, !deselect); err != nil {
		return fmt.Errorf("select requirements: %w", err)
	}
	verb := "Selected"
	if deselect {
		verb = "Deselected"
	}
	cmd.Printf("%s %d requirement groups\n", verb, len(args))
	return nil
}
