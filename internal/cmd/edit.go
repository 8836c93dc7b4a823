package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EditCommand represents the edit command
type EditCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewEditCommand creates a new edit command
func NewEditCommand(root *RootCommand) *EditCommand {
	e := &EditCommand{
		root: root,
	}

	e.cmd = &cobra.Command{
		Use:   "edit <fullname>",
		Short: "Replace the text of a self post or comment",
		Long: `Replace the text of a self post or comment.

The post or comment is named by its fullname, as printed by 'mpost history'.

Example:
  mpost edit t3_abc123 --text "Updated body"`,
		Args: cobra.ExactArgs(1),
		RunE: e.Run,
	}

	e.cmd.Flags().String("text", "", "New body (markdown)")
	e.cmd.MarkFlagRequired("text")

	return e
}

// Command returns the underlying cobra command
func (e *EditCommand) Command() *cobra.Command {
	return e.cmd
}

// Run executes the edit command
func (e *EditCommand) Run(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")

	if err := e.root.Container().SubmissionService().EditText(cmd.Context(), args[0], text); err != nil {
		return err
	}

	fmt.Printf("✓ %s updated.\n", args[0])
	return nil
}

// DeleteCommand represents the delete command
type DeleteCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewDeleteCommand creates a new delete command
func NewDeleteCommand(root *RootCommand) *DeleteCommand {
	d := &DeleteCommand{
		root: root,
	}

	d.cmd = &cobra.Command{
		Use:   "delete <fullname>",
		Short: "Delete a post or comment",
		Long: `Delete a post or comment of the active account.

WARNING: This action is irreversible.

Examples:
  mpost delete t3_abc123
  mpost delete t1_def456 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: d.Run,
	}

	d.cmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")

	return d
}

// Command returns the underlying cobra command
func (d *DeleteCommand) Command() *cobra.Command {
	return d.cmd
}

// Run executes the delete command
func (d *DeleteCommand) Run(cmd *cobra.Command, args []string) error {
	thingID := args[0]
	container := d.root.Container()

	skipConfirm, _ := cmd.Flags().GetBool("yes")
	if !skipConfirm {
		confirm, err := container.Prompter().Confirm(fmt.Sprintf("Are you sure you want to delete %s?", thingID), false)
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := container.SubmissionService().Delete(cmd.Context(), thingID); err != nil {
		return err
	}

	fmt.Printf("✓ %s deleted.\n", thingID)
	return nil
}
