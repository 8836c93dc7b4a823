package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ResetCommand represents the reset command
type ResetCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewResetCommand creates a new reset command
func NewResetCommand(root *RootCommand) *ResetCommand {
	r := &ResetCommand{
		root: root,
	}

	r.cmd = &cobra.Command{
		Use:     "reset",
		Aliases: []string{"logout"},
		Short:   "Remove every stored account and the app configuration",
		Long: `Remove every stored account and the app configuration.

After a reset, run 'mpost configure' and 'mpost login' again.

Examples:
  mpost reset
  mpost reset --yes`,
		Args: cobra.NoArgs,
		RunE: r.Run,
	}

	r.cmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")

	return r
}

// Command returns the underlying cobra command
func (r *ResetCommand) Command() *cobra.Command {
	return r.cmd
}

// Run executes the reset command
func (r *ResetCommand) Run(cmd *cobra.Command, args []string) error {
	container := r.root.Container()

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm {
		fmt.Println("\n⚠️  WARNING: This removes the app configuration and all stored sessions.")
		confirm, err := container.Prompter().Confirm("Are you sure you want to reset mpost?", false)
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := container.AuthService().Reset(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("✓ All credentials removed.")
	return nil
}
