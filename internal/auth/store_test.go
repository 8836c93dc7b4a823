package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mpost-project/mpost-cli/internal/apperr"
	"github.com/mpost-project/mpost-cli/internal/config"
	"github.com/mpost-project/mpost-cli/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// provider fakes the token and identity endpoints
type provider struct {
	server        *httptest.Server
	tokenCalls    atomic.Int32
	identityCalls atomic.Int32

	tokenStatus int
	tokenBody   string
	lastForm    url.Values
	lastUser    string
	lastAuth    string
	lastAgent   string
}

func newProvider(t *testing.T) *provider {
	t.Helper()
	p := &provider{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"at1","refresh_token":"rt1","token_type":"bearer","expires_in":3600,"scope":"identity submit"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenCalls.Add(1)
		_ = r.ParseForm()
		p.lastForm = r.PostForm
		user, pass, _ := r.BasicAuth()
		p.lastUser = user + ":" + pass
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(p.tokenStatus)
		w.Write([]byte(p.tokenBody))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		p.identityCalls.Add(1)
		p.lastAuth = r.Header.Get("Authorization")
		p.lastAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"alice"}`))
	})
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *provider) calls() int32 {
	return p.tokenCalls.Load() + p.identityCalls.Load()
}

func newTestStore(t *testing.T, p *provider) (*CredentialStore, *storage.Service) {
	t.Helper()
	return newTestStoreAt(t, p, "mem://localhost/auth/"+strings.ReplaceAll(t.Name(), "/", "_"))
}

func newTestStoreAt(t *testing.T, p *provider, root string) (*CredentialStore, *storage.Service) {
	t.Helper()
	store := storage.New(root)
	configs := config.NewManager(store, config.AppConfig{
		Scope:       "identity submit",
		RedirectURI: "http://localhost:9876/callback",
	})
	endpoints := Endpoints{
		AuthorizeURL: p.server.URL + "/authorize",
		TokenURL:     p.server.URL + "/token",
		IdentityURL:  p.server.URL + "/me",
	}
	s := NewCredentialStore(store, configs, endpoints,
		WithHTTPClient(p.server.Client()),
		WithClock(func() time.Time { return testNow }),
	)
	return s, store
}

func configure(t *testing.T, s *CredentialStore) {
	t.Helper()
	ok, err := s.ApplyConfig(context.Background(), config.AppConfig{ClientID: "abc", ClientSecret: "xyz", UserAgent: "mpost-test"})
	require.NoError(t, err)
	require.True(t, ok)
}

func writeActive(t *testing.T, store *storage.Service, record TokenRecord) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, ActiveFileName, storage.JSON(record)))
	require.NoError(t, store.Write(ctx, accountFile(record.Username), storage.JSON(record)))
}

func TestCredentialStore_ExchangePersistsBothCopies(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, store := newTestStore(t, p)
	configure(t, s)

	record, err := s.ExchangeAuthorizationCode(ctx, "the-code")
	require.NoError(t, err)

	assert.Equal(t, "at1", record.AccessToken)
	assert.Equal(t, "rt1", record.RefreshToken)
	assert.Equal(t, "alice", record.Username)
	assert.Equal(t, "identity submit", record.Scope)
	assert.Equal(t, int64(3600), record.ExpiresIn)
	assert.Equal(t, testNow.Add(time.Hour).UnixMilli(), record.ExpiresOn)

	// header auth with the app credentials
	assert.Equal(t, "abc:xyz", p.lastUser)
	assert.Equal(t, "authorization_code", p.lastForm.Get("grant_type"))
	assert.Equal(t, "the-code", p.lastForm.Get("code"))
	assert.Equal(t, "http://localhost:9876/callback", p.lastForm.Get("redirect_uri"))
	assert.Equal(t, "Bearer at1", p.lastAuth)
	assert.Equal(t, "mpost-test", p.lastAgent)

	active, err := store.Read(ctx, ActiveFileName)
	require.NoError(t, err)
	durable, err := store.Read(ctx, "home/usr.alice.json")
	require.NoError(t, err)
	assert.Equal(t, active, durable)

	current, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, record, current)
}

func TestCredentialStore_ExchangeErrorPersistsNothing(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	p.tokenStatus = http.StatusBadRequest
	p.tokenBody = `{"error":"invalid_grant"}`
	s, store := newTestStore(t, p)
	configure(t, s)

	_, err := s.ExchangeAuthorizationCode(ctx, "stale")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrAuthExchange)

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, "invalid_grant", e.Code)
	assert.Equal(t, int32(0), p.identityCalls.Load())

	ok, err := store.Exists(ctx, ActiveFileName)
	require.NoError(t, err)
	assert.False(t, ok)
	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCredentialStore_NotConfigured(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, _ := newTestStore(t, p)

	_, err := s.LoadConfig(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)

	_, err = s.ExchangeAuthorizationCode(ctx, "code")
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)

	_, err = s.AuthCodeURL(ctx, "state")
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)
	assert.Equal(t, int32(0), p.calls())
}

func TestCredentialStore_ApplyConfigRejectsIncomplete(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, store := newTestStore(t, p)

	ok, err := s.ApplyConfig(ctx, config.AppConfig{ClientID: "abc"})
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := store.Exists(ctx, config.ConfigFileName)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCredentialStore_AuthCodeURL(t *testing.T) {
	p := newProvider(t)
	s, _ := newTestStore(t, p)
	configure(t, s)

	raw, err := s.AuthCodeURL(context.Background(), "st4te")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "abc", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "permanent", q.Get("duration"))
	assert.Equal(t, "identity submit", q.Get("scope"))
	assert.Equal(t, "http://localhost:9876/callback", q.Get("redirect_uri"))
}

func TestCredentialStore_HandleRedirect(t *testing.T) {
	tests := []struct {
		name     string
		params   url.Values
		expected string
		code     string
		wantErr  bool
	}{
		{name: "provider error", params: url.Values{"error": {"access_denied"}, "state": {"s"}}, expected: "s", code: "access_denied", wantErr: true},
		{name: "state mismatch", params: url.Values{"code": {"c"}, "state": {"other"}}, expected: "s", wantErr: true},
		{name: "missing code", params: url.Values{"state": {"s"}}, expected: "s", wantErr: true},
		{name: "success", params: url.Values{"code": {"c"}, "state": {"s"}}, expected: "s"},
		{name: "state not checked", params: url.Values{"code": {"c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t)
			s, _ := newTestStore(t, p)
			configure(t, s)

			record, err := s.HandleRedirect(context.Background(), tt.params, tt.expected)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrAuthExchange)
				assert.Equal(t, int32(0), p.calls())
				if tt.code != "" {
					var e *apperr.Error
					require.ErrorAs(t, err, &e)
					assert.Equal(t, tt.code, e.Code)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", record.Username)
		})
	}
}

func TestCredentialStore_ValidTokenCacheHit(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, store := newTestStore(t, p)
	configure(t, s)

	record := TokenRecord{
		AccessToken:  "live",
		RefreshToken: "rt",
		ExpiresIn:    3600,
		ExpiresOn:    testNow.Add(10 * time.Minute).UnixMilli(),
		Username:     "alice",
	}
	writeActive(t, store, record)
	before, err := store.Read(ctx, ActiveFileName)
	require.NoError(t, err)

	got, err := s.ValidToken(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, &record, got)
	assert.Equal(t, int32(0), p.calls())

	after, err := store.Read(ctx, ActiveFileName)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCredentialStore_ValidTokenRefreshesExpired(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	// the provider may omit the refresh token on refresh
	p.tokenBody = `{"access_token":"fresh","token_type":"bearer","expires_in":3600}`
	s, store := newTestStore(t, p)
	configure(t, s)

	writeActive(t, store, TokenRecord{
		AccessToken:  "stale",
		RefreshToken: "rt-keep",
		ExpiresIn:    3600,
		ExpiresOn:    testNow.Add(-time.Second).UnixMilli(),
		Username:     "alice",
	})

	got, err := s.ValidToken(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), p.tokenCalls.Load())
	assert.Equal(t, int32(0), p.identityCalls.Load())
	assert.Equal(t, "refresh_token", p.lastForm.Get("grant_type"))
	assert.Equal(t, "rt-keep", p.lastForm.Get("refresh_token"))
	assert.Equal(t, "abc:xyz", p.lastUser)

	assert.Equal(t, "fresh", got.AccessToken)
	assert.Equal(t, "rt-keep", got.RefreshToken)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, testNow.Add(time.Hour).UnixMilli(), got.ExpiresOn)

	var durable TokenRecord
	require.NoError(t, store.ReadJSON(ctx, "home/usr.alice.json", &durable))
	assert.Equal(t, *got, durable)

	// now valid: no further calls
	_, err = s.ValidToken(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.tokenCalls.Load())
}

func TestCredentialStore_ValidTokenForceRefresh(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, store := newTestStore(t, p)
	configure(t, s)

	writeActive(t, store, TokenRecord{
		AccessToken:  "live",
		RefreshToken: "rt",
		ExpiresOn:    testNow.Add(time.Hour).UnixMilli(),
		Username:     "alice",
	})

	got, err := s.ValidToken(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.tokenCalls.Load())
	assert.Equal(t, "at1", got.AccessToken)
	assert.Equal(t, "rt1", got.RefreshToken)
}

func TestCredentialStore_ValidTokenRefreshFailed(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	p.tokenStatus = http.StatusBadRequest
	p.tokenBody = `{"error":"invalid_grant"}`
	s, store := newTestStore(t, p)
	configure(t, s)

	stale := TokenRecord{AccessToken: "stale", RefreshToken: "revoked", ExpiresOn: testNow.Add(-time.Minute).UnixMilli(), Username: "alice"}
	writeActive(t, store, stale)

	_, err := s.ValidToken(ctx, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRefreshFailed)
	assert.True(t, apperr.IsCredential(err))
	assert.Equal(t, int32(1), p.tokenCalls.Load())

	current, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, &stale, current)
}

func TestCredentialStore_ValidTokenMissingCredentials(t *testing.T) {
	p := newProvider(t)
	s, _ := newTestStore(t, p)
	configure(t, s)

	_, err := s.ValidToken(context.Background(), false)
	assert.ErrorIs(t, err, apperr.ErrMissingCredentials)
	assert.Equal(t, int32(0), p.calls())
}

func TestCredentialStore_Accounts(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, store := newTestStore(t, p)

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	bob := TokenRecord{AccessToken: "b", RefreshToken: "rb", ExpiresOn: 1, Username: "bob"}
	writeActive(t, store, TokenRecord{AccessToken: "a", RefreshToken: "ra", ExpiresOn: 1, Username: "alice"})
	require.NoError(t, store.Write(ctx, accountFile("bob"), storage.JSON(bob)))
	require.NoError(t, store.Write(ctx, "home/notes.txt", storage.Text("ignored")))

	accounts, err = s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, accounts)

	t.Run("unknown account leaves active untouched", func(t *testing.T) {
		before, err := store.Read(ctx, ActiveFileName)
		require.NoError(t, err)

		_, err = s.SwitchAccount(ctx, "carol")
		assert.ErrorIs(t, err, apperr.ErrUnknownAccount)

		after, err := store.Read(ctx, ActiveFileName)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("switch copies durable to active", func(t *testing.T) {
		got, err := s.SwitchAccount(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, &bob, got)

		active, err := store.Read(ctx, ActiveFileName)
		require.NoError(t, err)
		durable, err := store.Read(ctx, accountFile("bob"))
		require.NoError(t, err)
		assert.Equal(t, durable, active)

		accounts, err := s.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, accounts)
	})
}

func TestCredentialStore_Reset(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, store := newTestStore(t, p)
	configure(t, s)
	_, err := s.ExchangeAuthorizationCode(ctx, "code")
	require.NoError(t, err)
	_, err = store.Stash(ctx, storage.TempDir, "jpg", storage.Bytes([]byte{1}))
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	_, err = s.LoadConfig(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)
	_, err = s.Current(ctx)
	assert.ErrorIs(t, err, apperr.ErrMissingCredentials)
	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCredentialStore_ResetKeepsForeignFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.SettingsFileName), []byte("http_timeout: 10s\n"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "drafts"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "drafts", "post.md"), []byte("draft"), 0600))

	p := newProvider(t)
	s, store := newTestStoreAt(t, p, root)
	configure(t, s)
	_, err := s.ExchangeAuthorizationCode(ctx, "code")
	require.NoError(t, err)
	_, err = store.Stash(ctx, storage.TempDir, "jpg", storage.Bytes([]byte{1}))
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	for _, name := range []string{config.ConfigFileName, ActiveFileName, HomeDir, storage.TempDir} {
		_, err := os.Stat(filepath.Join(root, name))
		assert.True(t, os.IsNotExist(err), "%s should be removed", name)
	}
	settings, err := os.ReadFile(filepath.Join(root, config.SettingsFileName))
	require.NoError(t, err)
	assert.Equal(t, "http_timeout: 10s\n", string(settings))
	draft, err := os.ReadFile(filepath.Join(root, "drafts", "post.md"))
	require.NoError(t, err)
	assert.Equal(t, "draft", string(draft))
}

func TestTokenRecord_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresIn: 60, ExpiresOn: 1000, Username: "u"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"a","refresh_token":"r","expires_in":60,"expires_on":1000,"username":"u"}`, string(data))
}

func TestCredentialStore_PersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s, store := newTestStore(t, p)
	configure(t, s)
	_, err := s.ExchangeAuthorizationCode(ctx, "code")
	require.NoError(t, err)

	before, err := store.Read(ctx, ActiveFileName)
	require.NoError(t, err)

	record, err := s.Current(ctx)
	require.NoError(t, err)
	require.NoError(t, s.persist(ctx, record))

	after, err := store.Read(ctx, ActiveFileName)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	durable, err := store.Read(ctx, accountFile(record.Username))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(durable))

	// a record without the optional fields keeps its shape too
	sparse := TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresIn: 60, ExpiresOn: 1000, Username: "bob"}
	writeActive(t, store, sparse)
	before, err = store.Read(ctx, ActiveFileName)
	require.NoError(t, err)
	record, err = s.Current(ctx)
	require.NoError(t, err)
	require.NoError(t, s.persist(ctx, record))
	after, err = store.Read(ctx, ActiveFileName)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestTokenRecord_ValidAt(t *testing.T) {
	record := TokenRecord{AccessToken: "a", ExpiresOn: testNow.UnixMilli()}
	assert.True(t, record.ValidAt(testNow.Add(-time.Millisecond)))
	assert.False(t, record.ValidAt(testNow))
	assert.False(t, (&TokenRecord{ExpiresOn: testNow.Add(time.Hour).UnixMilli()}).ValidAt(testNow))
}
