package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HomeDirName is the default storage root under the user's home directory
	HomeDirName = ".mpost"

	// SettingsFileName is the CLI settings file inside the home directory
	SettingsFileName = "settings.yaml"

	// HomeEnv overrides the storage root
	HomeEnv = "MPOST_HOME"

	DefaultAuthorizeURL = "https://www.reddit.com/api/v1/authorize.compact"
	DefaultTokenURL     = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIBaseURL   = "https://oauth.reddit.com"
	DefaultRedirectURI  = "http://localhost:9876/callback"
	DefaultScope        = "identity edit flair history mysubreddits read save submit privatemessages subscribe"
	DefaultHTTPTimeout  = 30 * time.Second
)

// Settings are the CLI level settings: where state lives and which
// endpoints to talk to.
type Settings struct {
	StorageRoot string        `yaml:"storage_root"`
	Endpoints   Endpoints     `yaml:"endpoints"`
	Paths       Paths         `yaml:"paths"`
	HTTPTimeout time.Duration `yaml:"-"`
	Timeout     string        `yaml:"http_timeout"`
	Log         LogSettings   `yaml:"log"`
}

// Endpoints names the provider and API locations
type Endpoints struct {
	AuthorizeURL string `yaml:"authorize_url"`
	TokenURL     string `yaml:"token_url"`
	APIBaseURL   string `yaml:"api_base_url"`
	RedirectURI  string `yaml:"redirect_uri"`
	Scope        string `yaml:"scope"`
}

// Paths are the API resources, relative to Endpoints.APIBaseURL
type Paths struct {
	Me            string `yaml:"me"`
	Karma         string `yaml:"karma"`
	Trophies      string `yaml:"trophies"`
	Submit        string `yaml:"submit"`
	SubmitGallery string `yaml:"submit_gallery"`
	MediaAsset    string `yaml:"media_asset"`
	Inbox         string `yaml:"inbox"`
	DeleteMessage string `yaml:"delete_message"`
	Subscriptions string `yaml:"subscriptions"`
	Favorite      string `yaml:"favorite"`
	EditText      string `yaml:"edit_text"`
	Delete        string `yaml:"delete"`
	UserListing   string `yaml:"user_listing"`
}

// LogSettings configures the logger
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultPaths returns the resource paths of the Reddit API
func DefaultPaths() Paths {
	return Paths{
		Me:            "api/v1/me",
		Karma:         "api/v1/me/karma",
		Trophies:      "api/v1/me/trophies",
		Submit:        "api/submit",
		SubmitGallery: "api/submit_gallery_post.json",
		MediaAsset:    "api/media/asset.json",
		Inbox:         "message/inbox.json",
		DeleteMessage: "api/del_msg",
		Subscriptions: "subreddits/mine/subscriber",
		Favorite:      "api/favorite",
		EditText:      "api/editusertext",
		Delete:        "api/del",
		UserListing:   "user/%s/%s",
	}
}

// DefaultSettings returns settings rooted at ~/.mpost (or $MPOST_HOME)
func DefaultSettings() (*Settings, error) {
	root := os.Getenv(HomeEnv)
	if root == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(homeDir, HomeDirName)
	}

	s := &Settings{StorageRoot: root}
	s.applyDefaults()
	return s, nil
}

// DefaultSettingsPath returns the settings file inside the default root
func DefaultSettingsPath() (string, error) {
	s, err := DefaultSettings()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.StorageRoot, SettingsFileName), nil
}

// LoadSettings reads a YAML settings file.
// A missing file yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	settings, err := DefaultSettings()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if settings.Timeout != "" {
		timeout, err := time.ParseDuration(settings.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid http_timeout %q: %w", settings.Timeout, err)
		}
		settings.HTTPTimeout = timeout
	}

	settings.applyDefaults()
	return settings, nil
}

// AppDefaults returns the values used for optional AppConfig fields
func (s *Settings) AppDefaults() AppConfig {
	return AppConfig{
		UserAgent:   DefaultUserAgent,
		Scope:       s.Endpoints.Scope,
		RedirectURI: s.Endpoints.RedirectURI,
	}
}

func (s *Settings) applyDefaults() {
	if s.Endpoints.AuthorizeURL == "" {
		s.Endpoints.AuthorizeURL = DefaultAuthorizeURL
	}
	if s.Endpoints.TokenURL == "" {
		s.Endpoints.TokenURL = DefaultTokenURL
	}
	if s.Endpoints.APIBaseURL == "" {
		s.Endpoints.APIBaseURL = DefaultAPIBaseURL
	}
	if s.Endpoints.RedirectURI == "" {
		s.Endpoints.RedirectURI = DefaultRedirectURI
	}
	if s.Endpoints.Scope == "" {
		s.Endpoints.Scope = DefaultScope
	}
	if s.HTTPTimeout <= 0 {
		s.HTTPTimeout = DefaultHTTPTimeout
	}
	if s.Log.Level == "" {
		s.Log.Level = "warn"
	}
	if s.Log.Format == "" {
		s.Log.Format = "text"
	}

	defaults := DefaultPaths()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&s.Paths.Me, defaults.Me)
	fill(&s.Paths.Karma, defaults.Karma)
	fill(&s.Paths.Trophies, defaults.Trophies)
	fill(&s.Paths.Submit, defaults.Submit)
	fill(&s.Paths.SubmitGallery, defaults.SubmitGallery)
	fill(&s.Paths.MediaAsset, defaults.MediaAsset)
	fill(&s.Paths.Inbox, defaults.Inbox)
	fill(&s.Paths.DeleteMessage, defaults.DeleteMessage)
	fill(&s.Paths.Subscriptions, defaults.Subscriptions)
	fill(&s.Paths.Favorite, defaults.Favorite)
	fill(&s.Paths.EditText, defaults.EditText)
	fill(&s.Paths.Delete, defaults.Delete)
	fill(&s.Paths.UserListing, defaults.UserListing)
}
