package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mpost-project/mpost-cli/internal/auth"
	"github.com/mpost-project/mpost-cli/internal/config"
	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
)

// authService implements iface.AuthService
type authService struct {
	store *auth.CredentialStore
	login *auth.LoginFlow
}

// NewAuthService creates a new authentication service
func NewAuthService(store *auth.CredentialStore, login *auth.LoginFlow) iface.AuthService {
	return &authService{
		store: store,
		login: login,
	}
}

// Configure validates and stores the app credentials
func (s *authService) Configure(ctx context.Context, cfg config.AppConfig) (bool, error) {
	return s.store.ApplyConfig(ctx, cfg)
}

// Config returns the stored app credentials
func (s *authService) Config(ctx context.Context) (*config.AppConfig, error) {
	return s.store.LoadConfig(ctx)
}

// Login runs the browser based authorization flow
func (s *authService) Login(ctx context.Context) (*iface.Account, error) {
	record, err := s.login.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return toAccount(record), nil
}

// CompleteRedirect finishes a login from the URL the browser was sent to
func (s *authService) CompleteRedirect(ctx context.Context, redirectURL string) (*iface.Account, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL: %w", err)
	}
	// the state was generated by another process; it cannot be checked here
	record, err := s.store.HandleRedirect(ctx, u.Query(), "")
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return toAccount(record), nil
}

// Current returns the active account
func (s *authService) Current(ctx context.Context) (*iface.Account, error) {
	record, err := s.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	return toAccount(record), nil
}

// ListAccounts returns the usernames with a stored session
func (s *authService) ListAccounts(ctx context.Context) ([]string, error) {
	return s.store.ListAccounts(ctx)
}

// SwitchAccount makes username the active account
func (s *authService) SwitchAccount(ctx context.Context, username string) (*iface.Account, error) {
	record, err := s.store.SwitchAccount(ctx, username)
	if err != nil {
		return nil, err
	}
	return toAccount(record), nil
}

// Reset deletes every stored credential
func (s *authService) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	return nil
}

func toAccount(record *auth.TokenRecord) *iface.Account {
	return &iface.Account{
		Username:  record.Username,
		ExpiresAt: record.Expiry(),
		Scope:     record.Scope,
	}
}
