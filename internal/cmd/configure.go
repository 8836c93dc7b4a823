package cmd

import (
	"fmt"

	"github.com/mpost-project/mpost-cli/internal/config"
	"github.com/spf13/cobra"
)

// ConfigureCommand represents the configure command
type ConfigureCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewConfigureCommand creates a new configure command
func NewConfigureCommand(root *RootCommand) *ConfigureCommand {
	c := &ConfigureCommand{
		root: root,
	}

	c.cmd = &cobra.Command{
		Use:   "configure",
		Short: "Store the credentials of your Reddit app",
		Long: `Store the client id and secret of the Reddit app mpost authenticates as.

Create a "web app" at https://www.reddit.com/prefs/apps with the redirect URI
http://localhost:9876/callback, then run this command. Values not given as
flags are asked for interactively.

Examples:
  mpost configure
  mpost configure --client-id abc --client-secret xyz`,
		RunE: c.Run,
	}

	c.cmd.Flags().String("client-id", "", "OAuth client ID")
	c.cmd.Flags().String("client-secret", "", "OAuth client secret")
	c.cmd.Flags().String("user-agent", "", "User-Agent sent with every request")
	c.cmd.Flags().String("redirect-uri", "", "Redirect URI registered with the app")
	c.cmd.Flags().String("scope", "", "Space separated OAuth scopes")

	return c
}

// Command returns the underlying cobra command
func (c *ConfigureCommand) Command() *cobra.Command {
	return c.cmd
}

// Run executes the configure command
func (c *ConfigureCommand) Run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	authService := c.root.Container().AuthService()
	prompter := c.root.Container().Prompter()

	// Start from what is stored so a partial update keeps the rest
	var cfg config.AppConfig
	if existing, err := authService.Config(ctx); err == nil && existing != nil {
		cfg = *existing
	}

	flags := map[string]*string{
		"client-id":     &cfg.ClientID,
		"client-secret": &cfg.ClientSecret,
		"user-agent":    &cfg.UserAgent,
		"redirect-uri":  &cfg.RedirectURI,
		"scope":         &cfg.Scope,
	}
	for name, field := range flags {
		if value, _ := cmd.Flags().GetString(name); value != "" {
			*field = value
		}
	}

	var err error
	if cfg.ClientID == "" {
		if cfg.ClientID, err = prompter.Input("Client ID:", "", true); err != nil {
			return err
		}
	}
	if cfg.ClientSecret == "" {
		if cfg.ClientSecret, err = prompter.Password("Client secret:"); err != nil {
			return err
		}
	}

	ok, err := authService.Configure(ctx, cfg)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("client id and client secret are required")
	}

	fmt.Println("✓ Configuration saved.")
	fmt.Println("\nNext, authorize an account with: mpost login")
	return nil
}
