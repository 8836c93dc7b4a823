package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InboxCommand represents the inbox command group
type InboxCommand struct {
	root *RootCommand
	cmd  *cobra.Command

	// Subcommands
	deleteCmd *InboxDeleteCommand
}

// NewInboxCommand creates a new inbox command
func NewInboxCommand(root *RootCommand) *InboxCommand {
	i := &InboxCommand{
		root: root,
	}

	i.cmd = &cobra.Command{
		Use:   "inbox",
		Short: "List messages in the inbox",
		Long: `List one page of the inbox of the active account.

Examples:
  mpost inbox
  mpost inbox --limit 50
  mpost inbox delete t4_abc123`,
		Args: cobra.NoArgs,
		RunE: i.Run,
	}

	i.cmd.Flags().Int("limit", 25, "Maximum number of messages")
	i.cmd.Flags().String("after", "", "Fullname to continue after")

	i.deleteCmd = NewInboxDeleteCommand(i)
	i.cmd.AddCommand(i.deleteCmd.Command())

	return i
}

// Command returns the underlying cobra command
func (i *InboxCommand) Command() *cobra.Command {
	return i.cmd
}

// Root returns the parent root command
func (i *InboxCommand) Root() *RootCommand {
	return i.root
}

// Run executes the inbox command
func (i *InboxCommand) Run(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	after, _ := cmd.Flags().GetString("after")

	listing, err := i.root.Container().ContentService().Inbox(cmd.Context(), after, limit)
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return outputJSON(listing)
	}
	return outputListing(listing, "No messages.")
}

// InboxDeleteCommand represents the inbox delete command
type InboxDeleteCommand struct {
	parent *InboxCommand
	cmd    *cobra.Command
}

// NewInboxDeleteCommand creates a new inbox delete command
func NewInboxDeleteCommand(parent *InboxCommand) *InboxDeleteCommand {
	d := &InboxDeleteCommand{
		parent: parent,
	}

	d.cmd = &cobra.Command{
		Use:   "delete <fullname>",
		Short: "Delete a message from the inbox",
		Args:  cobra.ExactArgs(1),
		RunE:  d.Run,
	}

	return d
}

// Command returns the underlying cobra command
func (d *InboxDeleteCommand) Command() *cobra.Command {
	return d.cmd
}

// Run executes the inbox delete command
func (d *InboxDeleteCommand) Run(cmd *cobra.Command, args []string) error {
	if err := d.parent.Root().Container().ContentService().DeleteMessage(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Printf("✓ Message %s deleted.\n", args[0])
	return nil
}
