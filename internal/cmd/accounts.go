package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// AccountsCommand represents the accounts command group
type AccountsCommand struct {
	root *RootCommand
	cmd  *cobra.Command

	// Subcommands
	listCmd   *AccountsListCommand
	switchCmd *AccountsSwitchCommand
}

// NewAccountsCommand creates a new accounts command
func NewAccountsCommand(root *RootCommand) *AccountsCommand {
	a := &AccountsCommand{
		root: root,
	}

	a.cmd = &cobra.Command{
		Use:   "accounts",
		Short: "Manage stored accounts",
		Long: `Manage the Reddit accounts mpost holds a session for.

Every 'mpost login' adds an account. One of them is active and used by
all other commands.`,
	}

	a.listCmd = NewAccountsListCommand(a)
	a.switchCmd = NewAccountsSwitchCommand(a)

	a.cmd.AddCommand(a.listCmd.Command())
	a.cmd.AddCommand(a.switchCmd.Command())

	return a
}

// Command returns the underlying cobra command
func (a *AccountsCommand) Command() *cobra.Command {
	return a.cmd
}

// Root returns the parent root command
func (a *AccountsCommand) Root() *RootCommand {
	return a.root
}

// accountEntry is one row of the account list
type accountEntry struct {
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// AccountsListCommand represents the accounts list command
type AccountsListCommand struct {
	parent *AccountsCommand
	cmd    *cobra.Command
}

// NewAccountsListCommand creates a new accounts list command
func NewAccountsListCommand(parent *AccountsCommand) *AccountsListCommand {
	l := &AccountsListCommand{
		parent: parent,
	}

	l.cmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored accounts",
		Long: `List the accounts with a stored session. The active account is marked with *.

Examples:
  mpost accounts list
  mpost accounts list -o json`,
		RunE: l.Run,
	}

	return l
}

// Command returns the underlying cobra command
func (l *AccountsListCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the accounts list command
func (l *AccountsListCommand) Run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	authService := l.parent.Root().Container().AuthService()

	names, err := authService.ListAccounts(ctx)
	if err != nil {
		return err
	}

	// No active account is not an error here
	active := ""
	if current, err := authService.Current(ctx); err == nil {
		active = current.Username
	}

	entries := make([]accountEntry, len(names))
	for i, name := range names {
		entries[i] = accountEntry{Username: name, Active: name == active}
	}

	if outputFormat(cmd) == "json" {
		return outputJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No accounts found.")
		fmt.Println("\nAuthorize an account with: mpost login")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTIVE\tUSERNAME")
	fmt.Fprintln(w, "------\t--------")
	for _, e := range entries {
		marker := ""
		if e.Active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\n", marker, e.Username)
	}
	return w.Flush()
}

// AccountsSwitchCommand represents the accounts switch command
type AccountsSwitchCommand struct {
	parent *AccountsCommand
	cmd    *cobra.Command
}

// NewAccountsSwitchCommand creates a new accounts switch command
func NewAccountsSwitchCommand(parent *AccountsCommand) *AccountsSwitchCommand {
	s := &AccountsSwitchCommand{
		parent: parent,
	}

	s.cmd = &cobra.Command{
		Use:   "switch [username]",
		Short: "Make another stored account active",
		Long: `Make another stored account active.

Without a username, the account is picked from a list.

Examples:
  mpost accounts switch
  mpost accounts switch my_alt`,
		Args: cobra.MaximumNArgs(1),
		RunE: s.Run,
	}

	return s
}

// Command returns the underlying cobra command
func (s *AccountsSwitchCommand) Command() *cobra.Command {
	return s.cmd
}

// Run executes the accounts switch command
func (s *AccountsSwitchCommand) Run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	container := s.parent.Root().Container()
	authService := container.AuthService()

	var username string
	if len(args) == 1 {
		username = args[0]
	} else {
		names, err := authService.ListAccounts(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no accounts found. Authorize one first with: mpost login")
		}

		active := ""
		if current, err := authService.Current(ctx); err == nil {
			active = current.Username
		}
		if username, err = container.Prompter().Select("Select account:", names, active); err != nil {
			return err
		}
	}

	account, err := authService.SwitchAccount(ctx, username)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Switched to u/%s\n", account.Username)
	return nil
}
