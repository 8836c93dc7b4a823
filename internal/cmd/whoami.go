package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
	"github.com/spf13/cobra"
)

// WhoamiCommand represents the whoami command
type WhoamiCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewWhoamiCommand creates a new whoami command
func NewWhoamiCommand(root *RootCommand) *WhoamiCommand {
	w := &WhoamiCommand{
		root: root,
	}

	w.cmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the active account",
		Long: `Show the active account and its profile.

Examples:
  mpost whoami
  mpost whoami --details
  mpost whoami -o json`,
		Args: cobra.NoArgs,
		RunE: w.Run,
	}

	w.cmd.Flags().Bool("details", false, "Include karma per subreddit and trophies")

	return w
}

// Command returns the underlying cobra command
func (w *WhoamiCommand) Command() *cobra.Command {
	return w.cmd
}

// whoamiOutput is the JSON shape of whoami
type whoamiOutput struct {
	Account  *iface.Account     `json:"account"`
	Profile  *iface.Profile     `json:"profile"`
	Karma    []iface.KarmaEntry `json:"karma,omitempty"`
	Trophies []iface.Trophy     `json:"trophies,omitempty"`
}

// Run executes the whoami command
func (w *WhoamiCommand) Run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	container := w.root.Container()

	account, err := container.AuthService().Current(ctx)
	if err != nil {
		return err
	}

	contentService := container.ContentService()
	profile, err := contentService.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	out := whoamiOutput{Account: account, Profile: profile}
	if details, _ := cmd.Flags().GetBool("details"); details {
		if out.Karma, err = contentService.Karma(ctx); err != nil {
			return fmt.Errorf("failed to fetch karma: %w", err)
		}
		if out.Trophies, err = contentService.Trophies(ctx); err != nil {
			return fmt.Errorf("failed to fetch trophies: %w", err)
		}
	}

	if outputFormat(cmd) == "json" {
		return outputJSON(out)
	}
	return w.outputDetail(out)
}

func (w *WhoamiCommand) outputDetail(out whoamiOutput) error {
	fmt.Printf("Username:      u/%s\n", out.Profile.Name)
	fmt.Printf("ID:            %s\n", out.Profile.ID)
	fmt.Printf("Link karma:    %d\n", out.Profile.LinkKarma)
	fmt.Printf("Comment karma: %d\n", out.Profile.CommentKarma)
	if out.Profile.CreatedUTC > 0 {
		fmt.Printf("Created:       %s\n", formatUnix(out.Profile.CreatedUTC))
	}
	if out.Profile.HasMail {
		fmt.Printf("Unread mail:   %d\n", out.Profile.InboxCount)
	}
	fmt.Printf("Session until: %s\n", out.Account.ExpiresAt.Local().Format(time.RFC3339))

	if len(out.Karma) > 0 {
		fmt.Println("\nKarma:")
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  SUBREDDIT\tLINK\tCOMMENT")
		fmt.Fprintln(tw, "  ---------\t----\t-------")
		for _, k := range out.Karma {
			fmt.Fprintf(tw, "  r/%s\t%d\t%d\n", k.Subreddit, k.LinkKarma, k.CommentKarma)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(out.Trophies) > 0 {
		fmt.Println("\nTrophies:")
		for _, t := range out.Trophies {
			if t.Description != "" {
				fmt.Printf("  • %s (%s)\n", t.Name, t.Description)
			} else {
				fmt.Printf("  • %s\n", t.Name)
			}
		}
	}
	return nil
}

// formatUnix renders a Reddit created_utc timestamp
func formatUnix(seconds float64) string {
	return time.Unix(int64(seconds), 0).UTC().Format("2006-01-02")
}
