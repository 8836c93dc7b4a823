package cmd

import (
	"fmt"

	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
	"github.com/spf13/cobra"
)

// LoginCommand represents the login command
type LoginCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewLoginCommand creates a new login command
func NewLoginCommand(root *RootCommand) *LoginCommand {
	l := &LoginCommand{
		root: root,
	}

	l.cmd = &cobra.Command{
		Use:   "login",
		Short: "Authorize mpost with your Reddit account",
		Long: `Authorize mpost with your Reddit account.

This command will open a browser window for you to approve access.
After successful authorization, the session is stored locally and
becomes the active account. Run it again to add another account.

If the browser cannot reach mpost, copy the URL it was sent to and run:
  mpost redirect <url>

Example:
  mpost login`,
		RunE: l.Run,
	}

	return l
}

// Command returns the underlying cobra command
func (l *LoginCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the login command
func (l *LoginCommand) Run(cmd *cobra.Command, args []string) error {
	authService := l.root.Container().AuthService()

	account, err := authService.Login(cmd.Context())
	if err != nil {
		return err
	}

	printLoggedIn(account)
	return nil
}

// RedirectCommand completes a login from a pasted redirect URL
type RedirectCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewRedirectCommand creates a new redirect command
func NewRedirectCommand(root *RootCommand) *RedirectCommand {
	r := &RedirectCommand{
		root: root,
	}

	r.cmd = &cobra.Command{
		Use:   "redirect <url>",
		Short: "Complete a login from the URL the browser was redirected to",
		Long: `Complete a login from the URL the browser was redirected to.

Use this when 'mpost login' could not receive the redirect itself,
for example on a remote machine.

Example:
  mpost redirect 'http://localhost:9876/callback?state=...&code=...'`,
		Args: cobra.ExactArgs(1),
		RunE: r.Run,
	}

	return r
}

// Command returns the underlying cobra command
func (r *RedirectCommand) Command() *cobra.Command {
	return r.cmd
}

// Run executes the redirect command
func (r *RedirectCommand) Run(cmd *cobra.Command, args []string) error {
	authService := r.root.Container().AuthService()

	account, err := authService.CompleteRedirect(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printLoggedIn(account)
	return nil
}

func printLoggedIn(account *iface.Account) {
	fmt.Printf("✓ Successfully logged in as u/%s\n", account.Username)
}
