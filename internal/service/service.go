// Package service implements the operations behind the CLI commands on top
// of the credential store, the authenticated client and the media uploader.
package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mpost-project/mpost-cli/internal/api"
	"github.com/mpost-project/mpost-cli/internal/media"
)

// APIClient is the authenticated client used by the services
type APIClient interface {
	Do(ctx context.Context, method, resource string, opts *api.RequestOptions) (*api.Response, error)
	Get(ctx context.Context, resource string, query url.Values, result interface{}) error
	Post(ctx context.Context, resource string, form url.Values, result interface{}) error
	SessionCookies(ctx context.Context) ([]*http.Cookie, error)
}

// MediaUploader uploads local files as API assets
type MediaUploader interface {
	Upload(ctx context.Context, path string) (*media.MediaAsset, error)
	UploadGallery(ctx context.Context, paths []string) ([]media.MediaAsset, error)
	UploadVideo(ctx context.Context, video, poster string) (*media.VideoAssets, error)
}

// apiResult is the envelope of api_type=json write calls
type apiResult struct {
	JSON struct {
		Errors [][]interface{} `json:"errors"`
		Data   struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

// err turns the reported errors into one error value
func (r *apiResult) err() error {
	if len(r.JSON.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(r.JSON.Errors))
	for _, e := range r.JSON.Errors {
		parts := make([]string, 0, len(e))
		for _, p := range e {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		messages = append(messages, strings.Join(parts, ": "))
	}
	return fmt.Errorf("rejected by API: %s", strings.Join(messages, "; "))
}
