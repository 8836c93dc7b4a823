// Package auth owns the OAuth credential lifecycle: app configuration,
// the authorization code exchange, lazy refresh and account switching.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mpost-project/mpost-cli/internal/apperr"
	"github.com/mpost-project/mpost-cli/internal/config"
	"github.com/mpost-project/mpost-cli/internal/logging"
	"github.com/mpost-project/mpost-cli/internal/storage"
	"golang.org/x/oauth2"
)

// Endpoints are the provider locations used by the store
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
	// IdentityURL returns the authenticated account; its "name" field
	// becomes TokenRecord.Username.
	IdentityURL string
}

// CredentialStore manages the app configuration and the token records of
// zero or more accounts. One record is active at a time.
type CredentialStore struct {
	store      *storage.Service
	configs    *config.Manager
	endpoints  Endpoints
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	// mu serialises read-modify-persist of the active record
	mu sync.Mutex

	cfgMu sync.Mutex
	cfg   *config.AppConfig
	oauth *oauth2.Config
}

// Option configures a CredentialStore
type Option func(*CredentialStore)

// WithHTTPClient sets the client used for token and identity calls
func WithHTTPClient(client *http.Client) Option {
	return func(s *CredentialStore) {
		s.httpClient = client
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *CredentialStore) {
		s.logger = logger
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *CredentialStore) {
		s.now = now
	}
}

// NewCredentialStore creates a store persisting into store
func NewCredentialStore(store *storage.Service, configs *config.Manager, endpoints Endpoints, opts ...Option) *CredentialStore {
	s := &CredentialStore{
		store:      store,
		configs:    configs,
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: config.DefaultHTTPTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	return s
}

// LoadConfig reads the persisted app configuration.
// Returns apperr.ErrNotConfigured when it is absent or incomplete.
func (s *CredentialStore) LoadConfig(ctx context.Context) (*config.AppConfig, error) {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.useConfig(cfg)
	return cfg, nil
}

// ApplyConfig validates and persists candidate, then reloads the runtime
// OAuth settings from it. It returns false, persisting nothing, when
// client_id or client_secret is missing.
func (s *CredentialStore) ApplyConfig(ctx context.Context, candidate config.AppConfig) (bool, error) {
	ok, err := s.configs.Apply(ctx, candidate)
	if err != nil || !ok {
		return false, err
	}
	s.useConfig(s.configs.Effective(candidate))
	s.logger.Info("configuration applied", "client_id", candidate.ClientID)
	return true, nil
}

// Config returns the loaded configuration, loading it on first use
func (s *CredentialStore) Config(ctx context.Context) (*config.AppConfig, error) {
	cfg, _, err := s.loaded(ctx)
	return cfg, err
}

// AuthCodeURL returns the provider page where the user grants access.
// state is echoed back on the redirect.
func (s *CredentialStore) AuthCodeURL(ctx context.Context, state string) (string, error) {
	_, oc, err := s.loaded(ctx)
	if err != nil {
		return "", err
	}
	return oc.AuthCodeURL(state, oauth2.SetAuthURLParam("duration", "permanent")), nil
}

// HandleRedirect completes a login from the query parameters delivered
// to the redirect URI. expectedState is checked when not empty.
func (s *CredentialStore) HandleRedirect(ctx context.Context, params url.Values, expectedState string) (*TokenRecord, error) {
	if code := params.Get("error"); code != "" {
		return nil, &apperr.Error{
			Kind: apperr.AuthExchange,
			Op:   "authorize",
			Code: code,
			Body: params.Get("error_description"),
		}
	}
	if expectedState != "" && params.Get("state") != expectedState {
		return nil, apperr.Newf(apperr.AuthExchange, "authorize", "state mismatch")
	}
	code := params.Get("code")
	if code == "" {
		return nil, apperr.Newf(apperr.AuthExchange, "authorize", "no authorization code received")
	}
	return s.ExchangeAuthorizationCode(ctx, code)
}

// ExchangeAuthorizationCode trades code for a token, resolves the account
// name and stores the record as both the active and the durable copy.
// Nothing is persisted when the provider rejects the code.
func (s *CredentialStore) ExchangeAuthorizationCode(ctx context.Context, code string) (*TokenRecord, error) {
	cfg, oc, err := s.loaded(ctx)
	if err != nil {
		return nil, err
	}

	tok, err := oc.Exchange(s.oauthContext(ctx, cfg), code)
	if err != nil {
		return nil, classify(apperr.AuthExchange, "exchange", err)
	}

	username, err := s.whoami(ctx, cfg, tok)
	if err != nil {
		return nil, err
	}

	record := s.newRecord(tok, username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, record); err != nil {
		return nil, err
	}
	s.logger.Info("logged in", "username", username)
	return record, nil
}

// ValidToken returns the active record, refreshing it first when it has
// expired or forceRefresh is set. A record that is still valid is returned
// as is, without any network call or write.
func (s *CredentialStore) ValidToken(ctx context.Context, forceRefresh bool) (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if !forceRefresh && current.ValidAt(s.now()) {
		return current, nil
	}

	if current.RefreshToken == "" {
		return nil, apperr.Newf(apperr.RefreshFailed, "refresh", "no refresh token for %s", current.Username)
	}

	cfg, oc, err := s.loaded(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("refreshing access token", "username", current.Username, "forced", forceRefresh)
	src := oc.TokenSource(s.oauthContext(ctx, cfg), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, classify(apperr.RefreshFailed, "refresh", err)
	}

	record := s.newRecord(tok, current.Username)
	if record.RefreshToken == "" {
		record.RefreshToken = current.RefreshToken
	}
	if err := s.persist(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Current returns the active record without refreshing it
func (s *CredentialStore) Current(ctx context.Context) (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(ctx)
}

// ListAccounts returns the usernames that have a durable record
func (s *CredentialStore) ListAccounts(ctx context.Context) ([]string, error) {
	names, err := s.store.List(ctx, HomeDir, accountFilePattern)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(names))
	for _, name := range names {
		users = append(users, accountFilePattern.FindStringSubmatch(name)[1])
	}
	return users, nil
}

// SwitchAccount makes the durable record of username the active one.
// The durable catalog is not modified.
func (s *CredentialStore) SwitchAccount(ctx context.Context, username string) (*TokenRecord, error) {
	if username == "" || strings.ContainsAny(username, `/\`) {
		return nil, apperr.Newf(apperr.UnknownAccount, "switch account", "invalid username %q", username)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var record TokenRecord
	if err := s.store.ReadJSON(ctx, accountFile(username), &record); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.New(apperr.UnknownAccount, "switch account", err)
		}
		return nil, err
	}
	if err := s.store.Copy(ctx, accountFile(username), ActiveFileName); err != nil {
		return nil, fmt.Errorf("failed to activate %s: %w", username, err)
	}
	s.logger.Info("switched account", "username", username)
	return &record, nil
}

// Reset deletes the configuration and every token record
func (s *CredentialStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.configs.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}
	for _, name := range []string{ActiveFileName, storage.TempDir, HomeDir} {
		if err := s.store.Delete(ctx, name); err != nil {
			return err
		}
	}
	s.cfgMu.Lock()
	s.cfg, s.oauth = nil, nil
	s.cfgMu.Unlock()
	s.logger.Info("credentials reset")
	return nil
}

func (s *CredentialStore) current(ctx context.Context) (*TokenRecord, error) {
	var record TokenRecord
	if err := s.store.ReadJSON(ctx, ActiveFileName, &record); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.New(apperr.MissingCredentials, "token", err)
		}
		return nil, err
	}
	return &record, nil
}

// persist writes the active copy first, then the durable copy
func (s *CredentialStore) persist(ctx context.Context, record *TokenRecord) error {
	if err := s.store.Write(ctx, ActiveFileName, storage.JSON(record)); err != nil {
		return fmt.Errorf("failed to save active token: %w", err)
	}
	if err := s.store.Write(ctx, accountFile(record.Username), storage.JSON(record)); err != nil {
		return fmt.Errorf("failed to save token for %s: %w", record.Username, err)
	}
	return nil
}

func (s *CredentialStore) loaded(ctx context.Context) (*config.AppConfig, *oauth2.Config, error) {
	s.cfgMu.Lock()
	cfg, oc := s.cfg, s.oauth
	s.cfgMu.Unlock()
	if cfg != nil {
		return cfg, oc, nil
	}

	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s.useConfig(cfg), nil
}

func (s *CredentialStore) useConfig(cfg *config.AppConfig) *oauth2.Config {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.endpoints.AuthorizeURL,
			TokenURL: s.endpoints.TokenURL,
			// basic auth with base64(client_id:client_secret)
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: cfg.RedirectURI,
		Scopes:      cfg.Scopes(),
	}

	s.cfgMu.Lock()
	s.cfg, s.oauth = cfg, oc
	s.cfgMu.Unlock()
	return oc
}

// oauthContext makes oauth2 use our transport and user agent
func (s *CredentialStore) oauthContext(ctx context.Context, cfg *config.AppConfig) context.Context {
	client := &http.Client{
		Timeout:   s.httpClient.Timeout,
		Transport: &userAgentTransport{base: s.httpClient.Transport, userAgent: cfg.UserAgent},
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

func (s *CredentialStore) whoami(ctx context.Context, cfg *config.AppConfig, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoints.IdentityURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create identity request: %w", err)
	}
	client := oauth2.NewClient(s.oauthContext(ctx, cfg), oauth2.StaticTokenSource(tok))

	resp, err := client.Do(req)
	if err != nil {
		return "", apperr.New(apperr.Transport, "whoami", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.New(apperr.Transport, "whoami", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &apperr.Error{Kind: apperr.Transport, Op: "whoami", Status: resp.StatusCode, Body: string(body)}
	}

	var identity struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &identity); err != nil {
		return "", &apperr.Error{Kind: apperr.Transport, Op: "whoami", Body: string(body), Err: err}
	}
	if identity.Name == "" {
		return "", &apperr.Error{Kind: apperr.AuthExchange, Op: "whoami", Body: string(body), Err: errors.New("identity has no name")}
	}
	return identity.Name, nil
}

// newRecord stamps expires_on as now + expires_in
func (s *CredentialStore) newRecord(tok *oauth2.Token, username string) *TokenRecord {
	now := s.now()
	expiresIn := expiresInOf(tok, now)

	record := &TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    expiresIn,
		ExpiresOn:    now.Add(time.Duration(expiresIn) * time.Second).UnixMilli(),
		Username:     username,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		record.Scope = scope
	}
	return record
}

func expiresInOf(tok *oauth2.Token, now time.Time) int64 {
	if tok.ExpiresIn > 0 {
		return tok.ExpiresIn
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if !tok.Expiry.IsZero() {
		return int64(tok.Expiry.Sub(now).Round(time.Second) / time.Second)
	}
	return 0
}

// classify maps oauth2 failures: a provider answer becomes kind, anything
// else (network, timeout) is a transport error.
func classify(kind apperr.Kind, op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		e := &apperr.Error{Kind: kind, Op: op, Code: re.ErrorCode, Body: string(re.Body), Err: err}
		if re.Response != nil {
			e.Status = re.Response.StatusCode
		}
		return e
	}
	return apperr.New(apperr.Transport, op, err)
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.userAgent == "" {
		return base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return base.RoundTrip(clone)
}
