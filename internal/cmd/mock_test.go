package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/mpost-project/mpost-cli/internal/config"
	"github.com/mpost-project/mpost-cli/internal/di"
	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
)

// MockAuthService is a mock implementation of iface.AuthService
type MockAuthService struct {
	ConfigureFunc        func(ctx context.Context, cfg config.AppConfig) (bool, error)
	ConfigFunc           func(ctx context.Context) (*config.AppConfig, error)
	LoginFunc            func(ctx context.Context) (*iface.Account, error)
	CompleteRedirectFunc func(ctx context.Context, redirectURL string) (*iface.Account, error)
	CurrentFunc          func(ctx context.Context) (*iface.Account, error)
	ListAccountsFunc     func(ctx context.Context) ([]string, error)
	SwitchAccountFunc    func(ctx context.Context, username string) (*iface.Account, error)
	ResetFunc            func(ctx context.Context) error
}

func (m *MockAuthService) Configure(ctx context.Context, cfg config.AppConfig) (bool, error) {
	if m.ConfigureFunc != nil {
		return m.ConfigureFunc(ctx, cfg)
	}
	return true, nil
}

func (m *MockAuthService) Config(ctx context.Context) (*config.AppConfig, error) {
	if m.ConfigFunc != nil {
		return m.ConfigFunc(ctx)
	}
	return nil, nil
}

func (m *MockAuthService) Login(ctx context.Context) (*iface.Account, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx)
	}
	return testAccount("tester"), nil
}

func (m *MockAuthService) CompleteRedirect(ctx context.Context, redirectURL string) (*iface.Account, error) {
	if m.CompleteRedirectFunc != nil {
		return m.CompleteRedirectFunc(ctx, redirectURL)
	}
	return testAccount("tester"), nil
}

func (m *MockAuthService) Current(ctx context.Context) (*iface.Account, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx)
	}
	return testAccount("tester"), nil
}

func (m *MockAuthService) ListAccounts(ctx context.Context) ([]string, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx)
	}
	return nil, nil
}

func (m *MockAuthService) SwitchAccount(ctx context.Context, username string) (*iface.Account, error) {
	if m.SwitchAccountFunc != nil {
		return m.SwitchAccountFunc(ctx, username)
	}
	return testAccount(username), nil
}

func (m *MockAuthService) Reset(ctx context.Context) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx)
	}
	return nil
}

// MockContentService is a mock implementation of iface.ContentService
type MockContentService struct {
	MeFunc            func(ctx context.Context) (*iface.Profile, error)
	KarmaFunc         func(ctx context.Context) ([]iface.KarmaEntry, error)
	TrophiesFunc      func(ctx context.Context) ([]iface.Trophy, error)
	SubscriptionsFunc func(ctx context.Context) ([]iface.Thing, error)
	FavoriteFunc      func(ctx context.Context, subreddit string, favorite bool) error
	InboxFunc         func(ctx context.Context, after string, limit int) (*iface.Listing, error)
	DeleteMessageFunc func(ctx context.Context, id string) error
	UserListingFunc   func(ctx context.Context, kind string, opts iface.ListingOptions) (*iface.Listing, error)
}

func (m *MockContentService) Me(ctx context.Context) (*iface.Profile, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx)
	}
	return &iface.Profile{ID: "abc", Name: "tester"}, nil
}

func (m *MockContentService) Karma(ctx context.Context) ([]iface.KarmaEntry, error) {
	if m.KarmaFunc != nil {
		return m.KarmaFunc(ctx)
	}
	return nil, nil
}

func (m *MockContentService) Trophies(ctx context.Context) ([]iface.Trophy, error) {
	if m.TrophiesFunc != nil {
		return m.TrophiesFunc(ctx)
	}
	return nil, nil
}

func (m *MockContentService) Subscriptions(ctx context.Context) ([]iface.Thing, error) {
	if m.SubscriptionsFunc != nil {
		return m.SubscriptionsFunc(ctx)
	}
	return nil, nil
}

func (m *MockContentService) Favorite(ctx context.Context, subreddit string, favorite bool) error {
	if m.FavoriteFunc != nil {
		return m.FavoriteFunc(ctx, subreddit, favorite)
	}
	return nil
}

func (m *MockContentService) Inbox(ctx context.Context, after string, limit int) (*iface.Listing, error) {
	if m.InboxFunc != nil {
		return m.InboxFunc(ctx, after, limit)
	}
	return &iface.Listing{}, nil
}

func (m *MockContentService) DeleteMessage(ctx context.Context, id string) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, id)
	}
	return nil
}

func (m *MockContentService) UserListing(ctx context.Context, kind string, opts iface.ListingOptions) (*iface.Listing, error) {
	if m.UserListingFunc != nil {
		return m.UserListingFunc(ctx, kind, opts)
	}
	return &iface.Listing{}, nil
}

// MockSubmissionService is a mock implementation of iface.SubmissionService
type MockSubmissionService struct {
	SubmitTextFunc    func(ctx context.Context, post *iface.TextPost) (*iface.SubmitResult, error)
	SubmitImageFunc   func(ctx context.Context, post *iface.ImagePost) (*iface.SubmitResult, error)
	SubmitVideoFunc   func(ctx context.Context, post *iface.VideoPost) (*iface.SubmitResult, error)
	SubmitGalleryFunc func(ctx context.Context, post *iface.GalleryPost) (*iface.SubmitResult, error)
	EditTextFunc      func(ctx context.Context, thingID, text string) error
	DeleteFunc        func(ctx context.Context, thingID string) error
}

func (m *MockSubmissionService) SubmitText(ctx context.Context, post *iface.TextPost) (*iface.SubmitResult, error) {
	if m.SubmitTextFunc != nil {
		return m.SubmitTextFunc(ctx, post)
	}
	return testResult(), nil
}

func (m *MockSubmissionService) SubmitImage(ctx context.Context, post *iface.ImagePost) (*iface.SubmitResult, error) {
	if m.SubmitImageFunc != nil {
		return m.SubmitImageFunc(ctx, post)
	}
	return testResult(), nil
}

func (m *MockSubmissionService) SubmitVideo(ctx context.Context, post *iface.VideoPost) (*iface.SubmitResult, error) {
	if m.SubmitVideoFunc != nil {
		return m.SubmitVideoFunc(ctx, post)
	}
	return testResult(), nil
}

func (m *MockSubmissionService) SubmitGallery(ctx context.Context, post *iface.GalleryPost) (*iface.SubmitResult, error) {
	if m.SubmitGalleryFunc != nil {
		return m.SubmitGalleryFunc(ctx, post)
	}
	return testResult(), nil
}

func (m *MockSubmissionService) EditText(ctx context.Context, thingID, text string) error {
	if m.EditTextFunc != nil {
		return m.EditTextFunc(ctx, thingID, text)
	}
	return nil
}

func (m *MockSubmissionService) Delete(ctx context.Context, thingID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, thingID)
	}
	return nil
}

// MockPrompter is a mock implementation of prompt.Prompter
type MockPrompter struct {
	InputFunc    func(message, def string, required bool) (string, error)
	PasswordFunc func(message string) (string, error)
	SelectFunc   func(message string, options []string, def string) (string, error)
	ConfirmFunc  func(message string, def bool) (bool, error)
}

func (m *MockPrompter) Input(message, def string, required bool) (string, error) {
	if m.InputFunc != nil {
		return m.InputFunc(message, def, required)
	}
	return def, nil
}

func (m *MockPrompter) Password(message string) (string, error) {
	if m.PasswordFunc != nil {
		return m.PasswordFunc(message)
	}
	return "", nil
}

func (m *MockPrompter) Select(message string, options []string, def string) (string, error) {
	if m.SelectFunc != nil {
		return m.SelectFunc(message, options, def)
	}
	return def, nil
}

func (m *MockPrompter) Confirm(message string, def bool) (bool, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(message, def)
	}
	return def, nil
}

func testAccount(username string) *iface.Account {
	return &iface.Account{
		Username:  username,
		ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Scope:     "identity submit",
	}
}

func testResult() *iface.SubmitResult {
	return &iface.SubmitResult{
		ID:   "abc123",
		Name: "t3_abc123",
		URL:  "https://www.reddit.com/r/test/comments/abc123/hello/",
	}
}

// mocks groups the services a test command runs against. Nil fields are
// replaced by zero mocks.
type mocks struct {
	auth       *MockAuthService
	content    *MockContentService
	submission *MockSubmissionService
	prompter   *MockPrompter
}

// execute runs the CLI with args against the mocks and returns what it
// printed to stdout.
func execute(m mocks, args ...string) (string, error) {
	if m.auth == nil {
		m.auth = &MockAuthService{}
	}
	if m.content == nil {
		m.content = &MockContentService{}
	}
	if m.submission == nil {
		m.submission = &MockSubmissionService{}
	}
	if m.prompter == nil {
		m.prompter = &MockPrompter{}
	}

	container := di.NewContainerWithServices(m.auth, m.content, m.submission, m.prompter)
	root := NewRootCommand()
	root.SetContainer(container)

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	root.Command().SetArgs(args)
	err := root.Command().Execute()

	w.Close()
	os.Stdout = oldStdout
	return <-done, err
}
