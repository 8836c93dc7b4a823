// Package cmd provides the command-line interface for mpost.
// It contains all cobra commands and their implementations.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mpost-project/mpost-cli/internal/apperr"
	"github.com/mpost-project/mpost-cli/internal/config"
	"github.com/mpost-project/mpost-cli/internal/di"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"
)

// RootCommand represents the root CLI command
type RootCommand struct {
	container *di.Container
	cmd       *cobra.Command

	// Subcommands
	configureCmd  *ConfigureCommand
	loginCmd      *LoginCommand
	redirectCmd   *RedirectCommand
	accountsCmd   *AccountsCommand
	whoamiCmd     *WhoamiCommand
	resetCmd      *ResetCommand
	postCmd       *PostCommand
	editCmd       *EditCommand
	deleteCmd     *DeleteCommand
	historyCmd    *HistoryCommand
	inboxCmd      *InboxCommand
	subredditsCmd *SubredditsCommand
}

// NewRootCommand creates a new root command
func NewRootCommand() *RootCommand {
	r := &RootCommand{}

	r.cmd = &cobra.Command{
		Use:   "mpost",
		Short: "mpost - post to Reddit from the command line",
		Long: `mpost is a command-line client for the Reddit API.

It keeps OAuth sessions for one or more accounts, refreshes them as needed,
and submits text, image, video and gallery posts.

To get started, run:
  mpost configure - Store the client id and secret of your Reddit app
  mpost login     - Authorize mpost with your account`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.initialize()
		},
	}

	// Global flags
	r.cmd.PersistentFlags().StringP("output", "o", "text", "Output format (text, json)")
	r.cmd.PersistentFlags().String("settings", "", "Settings file (default ~/.mpost/settings.yaml)")
	r.cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	r.configureCmd = NewConfigureCommand(r)
	r.loginCmd = NewLoginCommand(r)
	r.redirectCmd = NewRedirectCommand(r)
	r.accountsCmd = NewAccountsCommand(r)
	r.whoamiCmd = NewWhoamiCommand(r)
	r.resetCmd = NewResetCommand(r)
	r.postCmd = NewPostCommand(r)
	r.editCmd = NewEditCommand(r)
	r.deleteCmd = NewDeleteCommand(r)
	r.historyCmd = NewHistoryCommand(r)
	r.inboxCmd = NewInboxCommand(r)
	r.subredditsCmd = NewSubredditsCommand(r)

	r.cmd.AddCommand(
		r.configureCmd.Command(),
		r.loginCmd.Command(),
		r.redirectCmd.Command(),
		r.accountsCmd.Command(),
		r.whoamiCmd.Command(),
		r.resetCmd.Command(),
		r.postCmd.Command(),
		r.editCmd.Command(),
		r.deleteCmd.Command(),
		r.historyCmd.Command(),
		r.inboxCmd.Command(),
		r.subredditsCmd.Command(),
	)

	return r
}

// initialize sets up the DI container
func (r *RootCommand) initialize() error {
	// Skip if container is already set (e.g., for testing)
	if r.container != nil {
		return nil
	}

	path, _ := r.cmd.PersistentFlags().GetString("settings")
	if path == "" {
		var err error
		if path, err = config.DefaultSettingsPath(); err != nil {
			return fmt.Errorf("failed to locate settings: %w", err)
		}
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return err
	}
	if level, _ := r.cmd.PersistentFlags().GetString("log-level"); level != "" {
		settings.Log.Level = level
	}

	r.container, err = di.NewContainer(settings, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// Command returns the underlying cobra command
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Container returns the DI container
func (r *RootCommand) Container() *di.Container {
	return r.container
}

// SetContainer sets a custom container (for testing)
func (r *RootCommand) SetContainer(c *di.Container) {
	r.container = c
}

// Execute is the main entry point for the CLI
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		PrintError(os.Stderr, err)
		return err
	}
	return nil
}

// PrintError writes err to w with a hint on how to recover
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(w, hint)
	}
}

// Hint suggests the command that fixes err, if any
func Hint(err error) string {
	switch apperr.KindOf(err) {
	case apperr.NotConfigured:
		return "Run 'mpost configure' to store your app credentials."
	case apperr.MissingCredentials:
		return "Run 'mpost login' to authorize an account."
	case apperr.RefreshFailed:
		return "The session could not be renewed. Run 'mpost login' again."
	case apperr.UnknownAccount:
		return "Run 'mpost accounts list' to see the stored accounts."
	}
	return ""
}

// outputFormat returns the value of the global --output flag
func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	if format == "" {
		format = "text"
	}
	return format
}

// outputJSON writes v as indented JSON to stdout
func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
