package iface

import (
	"context"
)

// Profile is the authenticated user
type Profile struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	LinkKarma    int     `json:"link_karma"`
	CommentKarma int     `json:"comment_karma"`
	TotalKarma   int     `json:"total_karma"`
	CreatedUTC   float64 `json:"created_utc"`
	HasMail      bool    `json:"has_mail"`
	InboxCount   int     `json:"inbox_count"`
}

// KarmaEntry is the karma earned in one subreddit
type KarmaEntry struct {
	Subreddit    string `json:"sr"`
	LinkKarma    int    `json:"link_karma"`
	CommentKarma int    `json:"comment_karma"`
}

// Trophy is an award shown on the profile
type Trophy struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AwardID     string `json:"award_id,omitempty"`
}

// Thing is one entry of a listing: a post, comment, message or subreddit
type Thing struct {
	Kind string    `json:"kind"`
	Data ThingData `json:"data"`
}

// ThingData holds the fields mpost displays. Which ones are set depends on Kind.
type ThingData struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Title               string  `json:"title,omitempty"`
	Subject             string  `json:"subject,omitempty"`
	Author              string  `json:"author,omitempty"`
	Subreddit           string  `json:"subreddit,omitempty"`
	DisplayNamePrefixed string  `json:"display_name_prefixed,omitempty"`
	Body                string  `json:"body,omitempty"`
	Selftext            string  `json:"selftext,omitempty"`
	URL                 string  `json:"url,omitempty"`
	Permalink           string  `json:"permalink,omitempty"`
	Score               int     `json:"score,omitempty"`
	Subscribers         int     `json:"subscribers,omitempty"`
	UserIsFavorite      bool    `json:"user_has_favorited,omitempty"`
	New                 bool    `json:"new,omitempty"`
	CreatedUTC          float64 `json:"created_utc,omitempty"`
}

// Listing is a page of things
type Listing struct {
	After    string  `json:"after"`
	Before   string  `json:"before"`
	Children []Thing `json:"children"`
}

// Listing kinds of a user's history
const (
	ListingOverview  = "overview"
	ListingSubmitted = "submitted"
	ListingComments  = "comments"
	ListingSaved     = "saved"
)

// ListingOptions page through a user listing.
// An empty Username means the authenticated user.
type ListingOptions struct {
	Username string
	After    string
	Before   string
	Sort     string
	Limit    int
}

// ContentService defines the interface for reading account content
type ContentService interface {
	// Me returns the authenticated user
	Me(ctx context.Context) (*Profile, error)

	// Karma returns the karma breakdown per subreddit
	Karma(ctx context.Context) ([]KarmaEntry, error)

	// Trophies returns the user's trophies
	Trophies(ctx context.Context) ([]Trophy, error)

	// Subscriptions returns every subscribed subreddit, following all pages
	Subscriptions(ctx context.Context) ([]Thing, error)

	// Favorite marks or unmarks a subreddit as favorite
	Favorite(ctx context.Context, subreddit string, favorite bool) error

	// Inbox returns one page of the inbox
	Inbox(ctx context.Context, after string, limit int) (*Listing, error)

	// DeleteMessage removes a message from the inbox
	DeleteMessage(ctx context.Context, id string) error

	// UserListing returns one page of a user's history of the given kind
	UserListing(ctx context.Context, kind string, opts ListingOptions) (*Listing, error)
}
