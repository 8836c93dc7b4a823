package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/mpost-project/mpost-cli/internal/apperr"
	"github.com/mpost-project/mpost-cli/internal/storage"
)

// DefaultPosterWidth and DefaultPosterHeight size the poster used for
// videos submitted without one
const (
	DefaultPosterWidth  = 320
	DefaultPosterHeight = 180
)

// UploadGallery uploads paths in order. It stops at the first failure and
// returns the assets completed so far with an *ItemError.
func (u *Uploader) UploadGallery(ctx context.Context, paths []string) ([]MediaAsset, error) {
	assets := make([]MediaAsset, 0, len(paths))
	for i, path := range paths {
		asset, err := u.Upload(ctx, path)
		if err != nil {
			return assets, &ItemError{Index: i + 1, Path: path, Err: err}
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

// UploadVideo uploads the poster, then the video. An empty poster uses a
// generated default; PNG and GIF posters are converted to JPEG first.
func (u *Uploader) UploadVideo(ctx context.Context, video, poster string) (*VideoAssets, error) {
	posterPath, cleanup, err := u.preparePoster(ctx, poster)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	posterAsset, err := u.Upload(ctx, posterPath)
	if err != nil {
		return nil, err
	}
	videoAsset, err := u.Upload(ctx, video)
	if err != nil {
		return nil, err
	}
	return &VideoAssets{Video: *videoAsset, Poster: *posterAsset}, nil
}

// preparePoster returns a JPEG location for the poster and a func
// removing whatever it stashed
func (u *Uploader) preparePoster(ctx context.Context, poster string) (string, func(), error) {
	noop := func() {}

	var img image.Image
	switch {
	case poster == "":
		img = defaultPoster()
	case MimeType(poster) == "image/png" || MimeType(poster) == "image/gif":
		data, err := u.fs.DownloadWithURL(ctx, poster)
		if err != nil {
			return "", noop, apperr.New(apperr.UploadFailed, "poster", fmt.Errorf("failed to read %s: %w", poster, err))
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", noop, apperr.New(apperr.UploadFailed, "poster", fmt.Errorf("failed to decode %s: %w", poster, err))
		}
		img = decoded
	default:
		return poster, noop, nil
	}

	name, err := u.store.Stash(ctx, storage.TempDir, "jpg", storage.Image(img))
	if err != nil {
		return "", noop, fmt.Errorf("failed to stash poster: %w", err)
	}
	cleanup := func() {
		if err := u.store.Unstash(context.Background(), name); err != nil {
			u.logger.Warn("failed to remove stashed poster", "name", name, "error", err)
		}
	}
	return u.store.URL(name), cleanup, nil
}

func defaultPoster() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, DefaultPosterWidth, DefaultPosterHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 0x1a, G: 0x1a, B: 0x1b, A: 0xff}}, image.Point{}, draw.Src)
	return img
}
