// Package di provides dependency injection for the mpost CLI.
// It contains the service container and factory functions.
package di

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/mpost-project/mpost-cli/internal/api"
	"github.com/mpost-project/mpost-cli/internal/auth"
	"github.com/mpost-project/mpost-cli/internal/config"
	"github.com/mpost-project/mpost-cli/internal/logging"
	"github.com/mpost-project/mpost-cli/internal/media"
	"github.com/mpost-project/mpost-cli/internal/prompt"
	"github.com/mpost-project/mpost-cli/internal/service"
	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
	"github.com/mpost-project/mpost-cli/internal/storage"
)

// Container holds all service dependencies for the CLI.
// Services are accessed via interfaces to enable mocking in tests.
type Container struct {
	settings          *config.Settings
	logger            *slog.Logger
	authService       iface.AuthService
	contentService    iface.ContentService
	submissionService iface.SubmissionService
	prompter          prompt.Prompter
}

// NewContainer wires the default implementations from settings.
// Progress messages of interactive flows go to out.
func NewContainer(settings *config.Settings, out io.Writer) (*Container, error) {
	logger := logging.NewLogger(logging.Config{
		Format: settings.Log.Format,
		Level:  logging.ParseLevel(settings.Log.Level),
	})

	store := storage.New(settings.StorageRoot)
	configs := config.NewManager(store, settings.AppDefaults())
	httpClient := &http.Client{Timeout: settings.HTTPTimeout}

	credentials := auth.NewCredentialStore(store, configs,
		auth.Endpoints{
			AuthorizeURL: settings.Endpoints.AuthorizeURL,
			TokenURL:     settings.Endpoints.TokenURL,
			IdentityURL:  settings.Endpoints.APIBaseURL + "/" + settings.Paths.Me,
		},
		auth.WithHTTPClient(httpClient),
		auth.WithLogger(logger),
	)

	client := api.NewClient(settings.Endpoints.APIBaseURL, credentials,
		api.WithHTTPClient(httpClient),
		api.WithLogger(logger),
		api.WithIdentityPath(settings.Paths.Me),
	)

	// the storage endpoint must not see the API bearer token
	uploader := media.NewUploader(client, settings.Paths.MediaAsset, store,
		media.WithStorageClient(&http.Client{Timeout: settings.HTTPTimeout}),
		media.WithLogger(logger),
	)

	return &Container{
		settings:          settings,
		logger:            logger,
		authService:       service.NewAuthService(credentials, auth.NewLoginFlow(credentials, out)),
		contentService:    service.NewContentService(client, settings.Paths),
		submissionService: service.NewSubmissionService(client, uploader, settings.Paths),
		prompter:          prompt.NewSurvey(),
	}, nil
}

// NewContainerWithServices creates a container with custom service implementations.
// This is useful for testing with mock services.
func NewContainerWithServices(
	authService iface.AuthService,
	contentService iface.ContentService,
	submissionService iface.SubmissionService,
	prompter prompt.Prompter,
) *Container {
	return &Container{
		logger:            logging.Discard(),
		authService:       authService,
		contentService:    contentService,
		submissionService: submissionService,
		prompter:          prompter,
	}
}

// AuthService returns the authentication service
func (c *Container) AuthService() iface.AuthService {
	return c.authService
}

// ContentService returns the content service
func (c *Container) ContentService() iface.ContentService {
	return c.contentService
}

// SubmissionService returns the submission service
func (c *Container) SubmissionService() iface.SubmissionService {
	return c.submissionService
}

// Prompter returns the interactive prompter
func (c *Container) Prompter() prompt.Prompter {
	return c.prompter
}

// Settings returns the settings the container was built from
func (c *Container) Settings() *config.Settings {
	return c.settings
}

// Logger returns the logger
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
