// Package config provides configuration management for the mpost CLI.
// It handles reading and writing the OAuth application credentials and
// the CLI settings file.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mpost-project/mpost-cli/internal/apperr"
	"github.com/mpost-project/mpost-cli/internal/storage"
)

const (
	// ConfigFileName is the name of the credentials blob in the storage root
	ConfigFileName = "config.json"

	// DefaultUserAgent is sent when the config does not name one
	DefaultUserAgent = "mpost CLI client"
)

// AppConfig is the OAuth application registration used for every network call
type AppConfig struct {
	// ClientID is the OAuth client ID of the registered app
	ClientID string `json:"client_id"`

	// ClientSecret is the OAuth client secret of the registered app
	ClientSecret string `json:"client_secret"`

	// UserAgent identifies this client to the API
	UserAgent string `json:"user_agent,omitempty"`

	// Scope is the space separated list of requested scopes
	Scope string `json:"scope,omitempty"`

	// RedirectURI must match the one registered with the provider
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// Valid reports whether both identity fields are present
func (c *AppConfig) Valid() bool {
	return c != nil && strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Scopes splits Scope on whitespace
func (c *AppConfig) Scopes() []string {
	return strings.Fields(c.Scope)
}

// Manager handles configuration blob operations
type Manager struct {
	store    *storage.Service
	defaults AppConfig
}

// NewManager creates a new configuration manager on store. Empty optional
// fields of a loaded config are filled from defaults.
func NewManager(store *storage.Service, defaults AppConfig) *Manager {
	if defaults.UserAgent == "" {
		defaults.UserAgent = DefaultUserAgent
	}
	return &Manager{store: store, defaults: defaults}
}

// Load reads the configuration blob.
// Returns apperr.ErrNotConfigured if the blob is absent or incomplete.
func (m *Manager) Load(ctx context.Context) (*AppConfig, error) {
	var cfg AppConfig
	if err := m.store.ReadJSON(ctx, ConfigFileName, &cfg); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.New(apperr.NotConfigured, "load config", err)
		}
		return nil, err
	}

	// there must be at least a client_id and client_secret in the blob
	if !cfg.Valid() {
		return nil, apperr.Newf(apperr.NotConfigured, "load config", "missing client_id or client_secret")
	}

	return m.withDefaults(cfg), nil
}

// Apply validates candidate and persists it verbatim.
// Returns false without touching storage when an identity field is missing.
func (m *Manager) Apply(ctx context.Context, candidate AppConfig) (bool, error) {
	if !candidate.Valid() {
		return false, nil
	}
	if err := m.store.Write(ctx, ConfigFileName, storage.JSON(candidate)); err != nil {
		return false, fmt.Errorf("failed to save config: %w", err)
	}
	return true, nil
}

// Delete removes the configuration blob
func (m *Manager) Delete(ctx context.Context) error {
	return m.store.Delete(ctx, ConfigFileName)
}

// Effective fills the optional fields of cfg from the manager defaults
func (m *Manager) Effective(cfg AppConfig) *AppConfig {
	return m.withDefaults(cfg)
}

func (m *Manager) withDefaults(cfg AppConfig) *AppConfig {
	if cfg.UserAgent == "" {
		cfg.UserAgent = m.defaults.UserAgent
	}
	if cfg.Scope == "" {
		cfg.Scope = m.defaults.Scope
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = m.defaults.RedirectURI
	}
	return &cfg
}
