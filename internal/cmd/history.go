package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
	"github.com/spf13/cobra"
)

// HistoryCommand represents the history command
type HistoryCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewHistoryCommand creates a new history command
func NewHistoryCommand(root *RootCommand) *HistoryCommand {
	h := &HistoryCommand{
		root: root,
	}

	h.cmd = &cobra.Command{
		Use:   "history",
		Short: "List posts and comments of a user",
		Long: `List one page of the posts and comments of a user, newest first.

Kinds: overview, submitted, comments, saved.
Without --user the active account is listed.

Examples:
  mpost history
  mpost history --kind submitted --limit 10
  mpost history --user spez --after t3_abc123`,
		Args: cobra.NoArgs,
		RunE: h.Run,
	}

	h.cmd.Flags().String("kind", iface.ListingOverview, "Listing kind")
	h.cmd.Flags().StringP("user", "u", "", "Username (default: the active account)")
	h.cmd.Flags().Int("limit", 25, "Maximum number of entries")
	h.cmd.Flags().String("after", "", "Fullname to continue after")

	return h
}

// Command returns the underlying cobra command
func (h *HistoryCommand) Command() *cobra.Command {
	return h.cmd
}

// Run executes the history command
func (h *HistoryCommand) Run(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	user, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")
	after, _ := cmd.Flags().GetString("after")

	listing, err := h.root.Container().ContentService().UserListing(cmd.Context(), kind, iface.ListingOptions{
		Username: strings.TrimPrefix(user, "u/"),
		After:    after,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return outputJSON(listing)
	}
	return outputListing(listing, "No entries found.")
}

// outputListing prints a listing of posts, comments or messages as a table
func outputListing(listing *iface.Listing, empty string) error {
	if len(listing.Children) == 0 {
		fmt.Println(empty)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHERE\tSCORE\tTEXT")
	fmt.Fprintln(w, "--\t-----\t-----\t----")
	for _, thing := range listing.Children {
		d := thing.Data
		where := d.Author
		if d.Subreddit != "" {
			where = "r/" + d.Subreddit
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.Name, where, d.Score, truncateString(summary(d), 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if listing.After != "" {
		fmt.Printf("\nMore: --after %s\n", listing.After)
	}
	return nil
}

// summary picks the most telling text of a thing
func summary(d iface.ThingData) string {
	for _, s := range []string{d.Title, d.Subject, d.Body, d.Selftext, d.URL} {
		if s != "" {
			return strings.Join(strings.Fields(s), " ")
		}
	}
	return ""
}

// truncateString truncates a string to a maximum length
func truncateString(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
