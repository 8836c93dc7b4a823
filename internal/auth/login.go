package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/mpost-project/mpost-cli/internal/apperr"
	"github.com/pkg/browser"
)

// DefaultLoginTimeout bounds the wait for the browser redirect
const DefaultLoginTimeout = 5 * time.Minute

// LoginFlow drives an interactive login: it serves the redirect URI
// locally, opens the authorization page and exchanges the returned code.
type LoginFlow struct {
	store   *CredentialStore
	out     io.Writer
	timeout time.Duration
	// openURL opens the authorization page; replaced in tests
	openURL func(string) error
}

// NewLoginFlow creates a login flow writing progress to out
func NewLoginFlow(store *CredentialStore, out io.Writer) *LoginFlow {
	return &LoginFlow{
		store:   store,
		out:     out,
		timeout: DefaultLoginTimeout,
		openURL: browser.OpenURL,
	}
}

// SetOpener replaces the browser launcher
func (f *LoginFlow) SetOpener(open func(string) error) {
	f.openURL = open
}

// SetTimeout changes how long Run waits for the redirect
func (f *LoginFlow) SetTimeout(timeout time.Duration) {
	f.timeout = timeout
}

// Run performs the login and returns the new active record
func (f *LoginFlow) Run(ctx context.Context) (*TokenRecord, error) {
	cfg, err := f.store.Config(ctx)
	if err != nil {
		return nil, err
	}

	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", cfg.RedirectURI)
	}
	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	state := uuid.NewString()
	authURL, err := f.store.AuthCodeURL(ctx, state)
	if err != nil {
		listener.Close()
		return nil, err
	}

	paramsChan := make(chan url.Values, 1)
	server := startCallbackServer(listener, callbackPath, paramsChan)
	defer server.Shutdown(context.Background())

	fmt.Fprintln(f.out, "Opening browser for authentication...")
	fmt.Fprintf(f.out, "If the browser doesn't open, please visit:\n%s\n\n", authURL)
	if err := f.openURL(authURL); err != nil {
		fmt.Fprintf(f.out, "Failed to open browser automatically: %v\n", err)
	}
	fmt.Fprintln(f.out, "Waiting for authentication...")

	select {
	case params := <-paramsChan:
		return f.store.HandleRedirect(ctx, params, state)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.timeout):
		return nil, apperr.Newf(apperr.AuthExchange, "authorize", "authentication timed out")
	}
}

// startCallbackServer hands the query of the first redirect to paramsChan.
// Requests carrying neither a code nor an error are not redirects and are
// answered with 400 without ending the wait.
func startCallbackServer(listener net.Listener, path string, paramsChan chan<- url.Values) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		if params.Get("code") == "" && params.Get("error") == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		message := "Authentication received. You can close this window."
		if params.Get("error") != "" {
			message = "Authentication failed. You can close this window."
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, resultHTML(message))

		select {
		case paramsChan <- params:
		default:
		}
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			paramsChan <- url.Values{"error": {err.Error()}}
		}
	}()
	return server
}

// resultHTML returns the page shown in the browser after the redirect
func resultHTML(message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>mpost</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
        }
        .container { text-align: center; padding: 40px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>mpost</h1>
        <p>%s</p>
    </div>
</body>
</html>`, html.EscapeString(message))
}
