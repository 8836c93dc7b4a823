package iface

import (
	"context"
)

// SubmitInput holds what every submission carries
type SubmitInput struct {
	Subreddit   string
	Title       string
	NSFW        bool
	Spoiler     bool
	SendReplies bool
	Resubmit    bool
}

// TextPost is a self post
type TextPost struct {
	SubmitInput
	Text string
}

// ImagePost is a single image post
type ImagePost struct {
	SubmitInput
	ImagePath string
}

// VideoPost is a video post. An empty PosterPath uses a default poster.
type VideoPost struct {
	SubmitInput
	VideoPath  string
	PosterPath string
}

// GalleryPost is a post of several images, in order
type GalleryPost struct {
	SubmitInput
	ImagePaths []string
}

// SubmitResult is what the API returns for a new post
type SubmitResult struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
	// AssetURLs are the uploaded media, in upload order
	AssetURLs []string `json:"asset_urls,omitempty"`
}

// SubmissionService defines the interface for creating and changing posts
type SubmissionService interface {
	// SubmitText creates a self post
	SubmitText(ctx context.Context, post *TextPost) (*SubmitResult, error)

	// SubmitImage uploads the image and creates an image post
	SubmitImage(ctx context.Context, post *ImagePost) (*SubmitResult, error)

	// SubmitVideo uploads the poster and the video and creates a video post
	SubmitVideo(ctx context.Context, post *VideoPost) (*SubmitResult, error)

	// SubmitGallery uploads every image and creates a gallery post
	SubmitGallery(ctx context.Context, post *GalleryPost) (*SubmitResult, error)

	// EditText replaces the body of a self post or comment
	EditText(ctx context.Context, thingID, text string) error

	// Delete removes a post or comment
	Delete(ctx context.Context, thingID string) error
}
