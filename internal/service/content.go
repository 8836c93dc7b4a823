package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mpost-project/mpost-cli/internal/api"
	"github.com/mpost-project/mpost-cli/internal/config"
	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
)

// SubscriptionPageSize is the page size used while collecting subscriptions
const SubscriptionPageSize = 100

// contentService implements iface.ContentService
type contentService struct {
	client APIClient
	paths  config.Paths
}

// NewContentService creates a new content service
func NewContentService(client APIClient, paths config.Paths) iface.ContentService {
	return &contentService{
		client: client,
		paths:  paths,
	}
}

// Me returns the authenticated user
func (s *contentService) Me(ctx context.Context) (*iface.Profile, error) {
	var profile iface.Profile
	if err := s.client.Get(ctx, s.paths.Me, nil, &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &profile, nil
}

// Karma returns the karma breakdown per subreddit
func (s *contentService) Karma(ctx context.Context) ([]iface.KarmaEntry, error) {
	var resp struct {
		Data []iface.KarmaEntry `json:"data"`
	}
	if err := s.client.Get(ctx, s.paths.Karma, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch karma: %w", err)
	}
	return resp.Data, nil
}

// Trophies returns the user's trophies
func (s *contentService) Trophies(ctx context.Context) ([]iface.Trophy, error) {
	var resp struct {
		Data struct {
			Trophies []struct {
				Data iface.Trophy `json:"data"`
			} `json:"trophies"`
		} `json:"data"`
	}
	if err := s.client.Get(ctx, s.paths.Trophies, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch trophies: %w", err)
	}

	trophies := make([]iface.Trophy, 0, len(resp.Data.Trophies))
	for _, t := range resp.Data.Trophies {
		trophies = append(trophies, t.Data)
	}
	return trophies, nil
}

// Subscriptions returns every subscribed subreddit, following the after
// cursor until the last page
func (s *contentService) Subscriptions(ctx context.Context) ([]iface.Thing, error) {
	var subs []iface.Thing
	seen := map[string]bool{}
	after := ""
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(SubscriptionPageSize))
		if after != "" {
			query.Set("after", after)
		}

		listing, err := s.listing(ctx, s.paths.Subscriptions, query)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
		}
		subs = append(subs, listing.Children...)

		if listing.After == "" || seen[listing.After] {
			return subs, nil
		}
		seen[listing.After] = true
		after = listing.After
	}
}

// Favorite marks or unmarks a subreddit as favorite
func (s *contentService) Favorite(ctx context.Context, subreddit string, favorite bool) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("sr_name", subreddit)
	form.Set("make_favorite", strconv.FormatBool(favorite))

	resp, err := s.client.Do(ctx, http.MethodPost, s.paths.Favorite, &api.RequestOptions{
		Query: url.Values{"raw_json": {"1"}},
		Form:  form,
	})
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	var result apiResult
	if err := resp.DecodeJSON(&result); err != nil {
		return err
	}
	return result.err()
}

// Inbox returns one page of the inbox
func (s *contentService) Inbox(ctx context.Context, after string, limit int) (*iface.Listing, error) {
	query := url.Values{}
	if after != "" {
		query.Set("after", after)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	listing, err := s.listing(ctx, s.paths.Inbox, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inbox: %w", err)
	}
	return listing, nil
}

// DeleteMessage removes a message from the inbox
func (s *contentService) DeleteMessage(ctx context.Context, id string) error {
	if err := s.client.Post(ctx, s.paths.DeleteMessage, url.Values{"id": {id}}, nil); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	return nil
}

// UserListing returns one page of a user's history
func (s *contentService) UserListing(ctx context.Context, kind string, opts iface.ListingOptions) (*iface.Listing, error) {
	switch kind {
	case iface.ListingOverview, iface.ListingSubmitted, iface.ListingComments, iface.ListingSaved:
	default:
		return nil, fmt.Errorf("unknown listing kind %q", kind)
	}

	username := opts.Username
	if username == "" {
		me, err := s.Me(ctx)
		if err != nil {
			return nil, err
		}
		username = me.Name
	}

	sort := opts.Sort
	if sort == "" {
		sort = "new"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 25
	}
	query := url.Values{}
	query.Set("sort", sort)
	query.Set("limit", strconv.Itoa(limit))
	if opts.After != "" {
		query.Set("after", opts.After)
	}
	if opts.Before != "" {
		query.Set("before", opts.Before)
	}

	listing, err := s.listing(ctx, fmt.Sprintf(s.paths.UserListing, url.PathEscape(username), kind), query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s of %s: %w", kind, username, err)
	}
	return listing, nil
}

func (s *contentService) listing(ctx context.Context, resource string, query url.Values) (*iface.Listing, error) {
	var resp struct {
		Data iface.Listing `json:"data"`
	}
	if err := s.client.Get(ctx, resource, query, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
