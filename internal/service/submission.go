package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mpost-project/mpost-cli/internal/api"
	"github.com/mpost-project/mpost-cli/internal/config"
	iface "github.com/mpost-project/mpost-cli/internal/service/interface"
)

// submissionService implements iface.SubmissionService
type submissionService struct {
	client   APIClient
	uploader MediaUploader
	paths    config.Paths
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(client APIClient, uploader MediaUploader, paths config.Paths) iface.SubmissionService {
	return &submissionService{
		client:   client,
		uploader: uploader,
		paths:    paths,
	}
}

// SubmitText creates a self post
func (s *submissionService) SubmitText(ctx context.Context, post *iface.TextPost) (*iface.SubmitResult, error) {
	form := submitForm(&post.SubmitInput, "self")
	form.Set("text", post.Text)
	return s.submit(ctx, form, false)
}

// SubmitImage uploads the image and creates an image post
func (s *submissionService) SubmitImage(ctx context.Context, post *iface.ImagePost) (*iface.SubmitResult, error) {
	asset, err := s.uploader.Upload(ctx, post.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	form := submitForm(&post.SubmitInput, "image")
	form.Set("url", asset.URL)
	result, err := s.submit(ctx, form, true)
	if err != nil {
		return nil, err
	}
	result.AssetURLs = []string{asset.URL}
	return result, nil
}

// SubmitVideo uploads the poster and the video and creates a video post
func (s *submissionService) SubmitVideo(ctx context.Context, post *iface.VideoPost) (*iface.SubmitResult, error) {
	assets, err := s.uploader.UploadVideo(ctx, post.VideoPath, post.PosterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}

	form := submitForm(&post.SubmitInput, "video")
	form.Set("url", assets.Video.URL)
	form.Set("video_poster_url", assets.Poster.URL)
	result, err := s.submit(ctx, form, true)
	if err != nil {
		return nil, err
	}
	result.AssetURLs = []string{assets.Poster.URL, assets.Video.URL}
	return result, nil
}

// galleryItem is one image of a gallery submission
type galleryItem struct {
	MediaID     string `json:"media_id"`
	Caption     string `json:"caption"`
	OutboundURL string `json:"outbound_url"`
}

// SubmitGallery uploads every image in order and creates a gallery post
func (s *submissionService) SubmitGallery(ctx context.Context, post *iface.GalleryPost) (*iface.SubmitResult, error) {
	if len(post.ImagePaths) == 0 {
		return nil, fmt.Errorf("a gallery needs at least one image")
	}

	assets, err := s.uploader.UploadGallery(ctx, post.ImagePaths)
	if err != nil {
		return nil, fmt.Errorf("failed to upload gallery: %w", err)
	}

	items := make([]galleryItem, 0, len(assets))
	urls := make([]string, 0, len(assets))
	for _, asset := range assets {
		items = append(items, galleryItem{MediaID: asset.ID})
		urls = append(urls, asset.URL)
	}

	cookies, err := s.client.SessionCookies(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"api_type":    "json",
		"sr":          post.Subreddit,
		"title":       post.Title,
		"items":       items,
		"nsfw":        post.NSFW,
		"sendreplies": post.SendReplies,
		"resubmit":    post.Resubmit,
		"spoiler":     post.Spoiler,
	}
	resp, err := s.client.Do(ctx, http.MethodPost, s.paths.SubmitGallery, &api.RequestOptions{JSON: body, Cookies: cookies})
	if err != nil {
		return nil, fmt.Errorf("failed to submit gallery: %w", err)
	}

	result, err := decodeSubmit(resp)
	if err != nil {
		return nil, err
	}
	result.AssetURLs = urls
	return result, nil
}

// EditText replaces the body of a self post or comment
func (s *submissionService) EditText(ctx context.Context, thingID, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", thingID)
	form.Set("text", text)

	var result apiResult
	if err := s.client.Post(ctx, s.paths.EditText, form, &result); err != nil {
		return fmt.Errorf("failed to edit %s: %w", thingID, err)
	}
	return result.err()
}

// Delete removes a post or comment
func (s *submissionService) Delete(ctx context.Context, thingID string) error {
	if err := s.client.Post(ctx, s.paths.Delete, url.Values{"id": {thingID}}, nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", thingID, err)
	}
	return nil
}

func (s *submissionService) submit(ctx context.Context, form url.Values, withCookies bool) (*iface.SubmitResult, error) {
	opts := &api.RequestOptions{Form: form}
	if withCookies {
		cookies, err := s.client.SessionCookies(ctx)
		if err != nil {
			return nil, err
		}
		opts.Cookies = cookies
	}

	resp, err := s.client.Do(ctx, http.MethodPost, s.paths.Submit, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to submit: %w", err)
	}
	return decodeSubmit(resp)
}

func decodeSubmit(resp *api.Response) (*iface.SubmitResult, error) {
	var result apiResult
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, err
	}
	if err := result.err(); err != nil {
		return nil, err
	}
	return &iface.SubmitResult{
		ID:   result.JSON.Data.ID,
		Name: result.JSON.Data.Name,
		URL:  result.JSON.Data.URL,
	}, nil
}

func submitForm(in *iface.SubmitInput, kind string) url.Values {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("kind", kind)
	form.Set("sr", in.Subreddit)
	form.Set("title", in.Title)
	form.Set("nsfw", strconv.FormatBool(in.NSFW))
	form.Set("sendreplies", strconv.FormatBool(in.SendReplies))
	form.Set("resubmit", strconv.FormatBool(in.Resubmit))
	form.Set("spoiler", strconv.FormatBool(in.Spoiler))
	return form
}
