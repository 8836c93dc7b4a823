// Package iface defines service interfaces for the mpost CLI.
// These interfaces enable dependency injection and mocking for tests.
package iface

import (
	"context"
	"time"

	"github.com/mpost-project/mpost-cli/internal/config"
)

// Account describes a stored session without exposing its tokens
type Account struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	Scope     string    `json:"scope,omitempty"`
}

// AuthService defines the interface for configuration and authentication
type AuthService interface {
	// Configure validates and stores the app credentials.
	// It returns false when client_id or client_secret is missing.
	Configure(ctx context.Context, cfg config.AppConfig) (bool, error)

	// Config returns the stored app credentials
	Config(ctx context.Context) (*config.AppConfig, error)

	// Login runs the browser based authorization flow
	Login(ctx context.Context) (*Account, error)

	// CompleteRedirect finishes a login from a pasted redirect URL
	CompleteRedirect(ctx context.Context, redirectURL string) (*Account, error)

	// Current returns the active account
	Current(ctx context.Context) (*Account, error)

	// ListAccounts returns the usernames with a stored session
	ListAccounts(ctx context.Context) ([]string, error)

	// SwitchAccount makes username the active account
	SwitchAccount(ctx context.Context, username string) (*Account, error)

	// Reset deletes every stored credential
	Reset(ctx context.Context) error
}
