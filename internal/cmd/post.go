package cmd

import (
	"fmt"
	"strings"

	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
	"github.com/spf13/cobra"
)

// PostCommand represents the post command group
type PostCommand struct {
	root *RootCommand
	cmd  *cobra.Command

	// Subcommands
	textCmd    *PostTextCommand
	imageCmd   *PostImageCommand
	videoCmd   *PostVideoCommand
	galleryCmd *PostGalleryCommand
}

// NewPostCommand creates a new post command
func NewPostCommand(root *RootCommand) *PostCommand {
	p := &PostCommand{
		root: root,
	}

	p.cmd = &cobra.Command{
		Use:   "post",
		Short: "Submit a new post",
		Long: `Submit a new post to a subreddit as the active account.

Media posts upload their files first. A gallery stops at the first file
that fails to upload and nothing is posted.`,
	}

	p.cmd.PersistentFlags().StringP("subreddit", "r", "", "Subreddit to post to (required)")
	p.cmd.PersistentFlags().StringP("title", "t", "", "Post title (required)")
	p.cmd.PersistentFlags().Bool("nsfw", false, "Mark the post NSFW")
	p.cmd.PersistentFlags().Bool("spoiler", false, "Mark the post as a spoiler")
	p.cmd.PersistentFlags().Bool("no-replies", false, "Do not send replies to the inbox")
	p.cmd.PersistentFlags().Bool("resubmit", false, "Allow posting a link that was already submitted")
	p.cmd.MarkPersistentFlagRequired("subreddit")
	p.cmd.MarkPersistentFlagRequired("title")

	p.textCmd = NewPostTextCommand(p)
	p.imageCmd = NewPostImageCommand(p)
	p.videoCmd = NewPostVideoCommand(p)
	p.galleryCmd = NewPostGalleryCommand(p)

	p.cmd.AddCommand(p.textCmd.Command())
	p.cmd.AddCommand(p.imageCmd.Command())
	p.cmd.AddCommand(p.videoCmd.Command())
	p.cmd.AddCommand(p.galleryCmd.Command())

	return p
}

// Command returns the underlying cobra command
func (p *PostCommand) Command() *cobra.Command {
	return p.cmd
}

// Root returns the parent root command
func (p *PostCommand) Root() *RootCommand {
	return p.root
}

// submitInput collects the flags shared by every post kind
func submitInput(cmd *cobra.Command) iface.SubmitInput {
	subreddit, _ := cmd.Flags().GetString("subreddit")
	title, _ := cmd.Flags().GetString("title")
	nsfw, _ := cmd.Flags().GetBool("nsfw")
	spoiler, _ := cmd.Flags().GetBool("spoiler")
	noReplies, _ := cmd.Flags().GetBool("no-replies")
	resubmit, _ := cmd.Flags().GetBool("resubmit")

	return iface.SubmitInput{
		Subreddit:   trimSubreddit(subreddit),
		Title:       title,
		NSFW:        nsfw,
		Spoiler:     spoiler,
		SendReplies: !noReplies,
		Resubmit:    resubmit,
	}
}

// trimSubreddit accepts "r/name" and "/r/name" as well as "name"
func trimSubreddit(name string) string {
	name = strings.TrimPrefix(name, "/")
	return strings.TrimPrefix(name, "r/")
}

// printSubmitted reports a new post
func printSubmitted(cmd *cobra.Command, subreddit string, result *iface.SubmitResult) error {
	if outputFormat(cmd) == "json" {
		return outputJSON(result)
	}

	fmt.Printf("✓ Posted to r/%s\n", subreddit)
	if result.Name != "" {
		fmt.Printf("  ID:  %s\n", result.Name)
	}
	if result.URL != "" {
		fmt.Printf("  URL: %s\n", result.URL)
	}
	if len(result.AssetURLs) > 0 {
		fmt.Println("  Uploaded:")
		for _, u := range result.AssetURLs {
			fmt.Printf("    %s\n", u)
		}
	}
	return nil
}

// progress prints a status line unless the output is JSON
func progress(cmd *cobra.Command, format string, args ...interface{}) {
	if outputFormat(cmd) != "json" {
		fmt.Printf(format, args...)
	}
}

// PostTextCommand represents the post text command
type PostTextCommand struct {
	parent *PostCommand
	cmd    *cobra.Command
}

// NewPostTextCommand creates a new post text command
func NewPostTextCommand(parent *PostCommand) *PostTextCommand {
	c := &PostTextCommand{
		parent: parent,
	}

	c.cmd = &cobra.Command{
		Use:   "text",
		Short: "Submit a self post",
		Long: `Submit a self post. The body may be empty.

Example:
  mpost post text -r test -t "Hello" --text "First post"`,
		Args: cobra.NoArgs,
		RunE: c.Run,
	}

	c.cmd.Flags().String("text", "", "Body of the post (markdown)")

	return c
}

// Command returns the underlying cobra command
func (c *PostTextCommand) Command() *cobra.Command {
	return c.cmd
}

// Run executes the post text command
func (c *PostTextCommand) Run(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	post := &iface.TextPost{SubmitInput: submitInput(cmd), Text: text}

	result, err := c.parent.Root().Container().SubmissionService().SubmitText(cmd.Context(), post)
	if err != nil {
		return err
	}
	return printSubmitted(cmd, post.Subreddit, result)
}

// PostImageCommand represents the post image command
type PostImageCommand struct {
	parent *PostCommand
	cmd    *cobra.Command
}

// NewPostImageCommand creates a new post image command
func NewPostImageCommand(parent *PostCommand) *PostImageCommand {
	c := &PostImageCommand{
		parent: parent,
	}

	c.cmd = &cobra.Command{
		Use:   "image <file>",
		Short: "Upload an image and submit it",
		Long: `Upload an image and submit it as an image post.

Example:
  mpost post image -r pics -t "Sunset" ./sunset.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: c.Run,
	}

	return c
}

// Command returns the underlying cobra command
func (c *PostImageCommand) Command() *cobra.Command {
	return c.cmd
}

// Run executes the post image command
func (c *PostImageCommand) Run(cmd *cobra.Command, args []string) error {
	post := &iface.ImagePost{SubmitInput: submitInput(cmd), ImagePath: args[0]}

	progress(cmd, "Uploading %s...\n", args[0])
	result, err := c.parent.Root().Container().SubmissionService().SubmitImage(cmd.Context(), post)
	if err != nil {
		return err
	}
	return printSubmitted(cmd, post.Subreddit, result)
}

// PostVideoCommand represents the post video command
type PostVideoCommand struct {
	parent *PostCommand
	cmd    *cobra.Command
}

// NewPostVideoCommand creates a new post video command
func NewPostVideoCommand(parent *PostCommand) *PostVideoCommand {
	c := &PostVideoCommand{
		parent: parent,
	}

	c.cmd = &cobra.Command{
		Use:   "video <file>",
		Short: "Upload a video and submit it",
		Long: `Upload a video with its poster image and submit it as a video post.

Without --poster a plain default poster is used. PNG and GIF posters are
converted to JPEG before upload.

Examples:
  mpost post video -r videos -t "Timelapse" ./clip.mp4
  mpost post video -r videos -t "Timelapse" ./clip.mp4 --poster ./frame.png`,
		Args: cobra.ExactArgs(1),
		RunE: c.Run,
	}

	c.cmd.Flags().String("poster", "", "Poster image shown before playback")

	return c
}

// Command returns the underlying cobra command
func (c *PostVideoCommand) Command() *cobra.Command {
	return c.cmd
}

// Run executes the post video command
func (c *PostVideoCommand) Run(cmd *cobra.Command, args []string) error {
	poster, _ := cmd.Flags().GetString("poster")
	post := &iface.VideoPost{SubmitInput: submitInput(cmd), VideoPath: args[0], PosterPath: poster}

	progress(cmd, "Uploading %s...\n", args[0])
	result, err := c.parent.Root().Container().SubmissionService().SubmitVideo(cmd.Context(), post)
	if err != nil {
		return err
	}
	return printSubmitted(cmd, post.Subreddit, result)
}

// PostGalleryCommand represents the post gallery command
type PostGalleryCommand struct {
	parent *PostCommand
	cmd    *cobra.Command
}

// NewPostGalleryCommand creates a new post gallery command
func NewPostGalleryCommand(parent *PostCommand) *PostGalleryCommand {
	c := &PostGalleryCommand{
		parent: parent,
	}

	c.cmd = &cobra.Command{
		Use:   "gallery <file>...",
		Short: "Upload several images and submit them as a gallery",
		Long: `Upload several images, in the given order, and submit them as a gallery.

Example:
  mpost post gallery -r pics -t "Trip" one.jpg two.jpg three.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.Run,
	}

	return c
}

// Command returns the underlying cobra command
func (c *PostGalleryCommand) Command() *cobra.Command {
	return c.cmd
}

// Run executes the post gallery command
func (c *PostGalleryCommand) Run(cmd *cobra.Command, args []string) error {
	post := &iface.GalleryPost{SubmitInput: submitInput(cmd), ImagePaths: args}

	progress(cmd, "Uploading %d images...\n", len(args))
	result, err := c.parent.Root().Container().SubmissionService().SubmitGallery(cmd.Context(), post)
	if err != nil {
		return err
	}
	return printSubmitted(cmd, post.Subreddit, result)
}
