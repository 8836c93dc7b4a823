package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// SubredditsCommand represents the subreddits command group
type SubredditsCommand struct {
	root *RootCommand
	cmd  *cobra.Command

	// Subcommands
	favoriteCmd *SubredditsFavoriteCommand
}

// NewSubredditsCommand creates a new subreddits command
func NewSubredditsCommand(root *RootCommand) *SubredditsCommand {
	s := &SubredditsCommand{
		root: root,
	}

	s.cmd = &cobra.Command{
		Use:   "subreddits",
		Short: "List subscribed subreddits",
		Long: `List every subreddit the active account is subscribed to.

Favorites are marked with *.

Examples:
  mpost subreddits
  mpost subreddits favorite golang
  mpost subreddits favorite golang --unset`,
		Args: cobra.NoArgs,
		RunE: s.Run,
	}

	s.favoriteCmd = NewSubredditsFavoriteCommand(s)
	s.cmd.AddCommand(s.favoriteCmd.Command())

	return s
}

// Command returns the underlying cobra command
func (s *SubredditsCommand) Command() *cobra.Command {
	return s.cmd
}

// Root returns the parent root command
func (s *SubredditsCommand) Root() *RootCommand {
	return s.root
}

// Run executes the subreddits command
func (s *SubredditsCommand) Run(cmd *cobra.Command, args []string) error {
	subs, err := s.root.Container().ContentService().Subscriptions(cmd.Context())
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return outputJSON(subs)
	}

	if len(subs) == 0 {
		fmt.Println("No subscriptions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAV\tNAME\tSUBSCRIBERS")
	fmt.Fprintln(w, "---\t----\t-----------")
	for _, sub := range subs {
		marker := ""
		if sub.Data.UserIsFavorite {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", marker, sub.Data.DisplayNamePrefixed, sub.Data.Subscribers)
	}
	return w.Flush()
}

// SubredditsFavoriteCommand represents the subreddits favorite command
type SubredditsFavoriteCommand struct {
	parent *SubredditsCommand
	cmd    *cobra.Command
}

// NewSubredditsFavoriteCommand creates a new subreddits favorite command
func NewSubredditsFavoriteCommand(parent *SubredditsCommand) *SubredditsFavoriteCommand {
	f := &SubredditsFavoriteCommand{
		parent: parent,
	}

	f.cmd = &cobra.Command{
		Use:   "favorite <subreddit>",
		Short: "Mark a subreddit as favorite",
		Args:  cobra.ExactArgs(1),
		RunE:  f.Run,
	}

	f.cmd.Flags().Bool("unset", false, "Remove the favorite mark instead")

	return f
}

// Command returns the underlying cobra command
func (f *SubredditsFavoriteCommand) Command() *cobra.Command {
	return f.cmd
}

// Run executes the subreddits favorite command
func (f *SubredditsFavoriteCommand) Run(cmd *cobra.Command, args []string) error {
	name := trimSubreddit(args[0])
	unset, _ := cmd.Flags().GetBool("unset")

	if err := f.parent.Root().Container().ContentService().Favorite(cmd.Context(), name, !unset); err != nil {
		return err
	}

	if unset {
		fmt.Printf("✓ r/%s removed from favorites.\n", name)
	} else {
		fmt.Printf("✓ r/%s added to favorites.\n", name)
	}
	return nil
}
