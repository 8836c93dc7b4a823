// Package media uploads local files to the content API's asset storage.
//
// Each file goes through a fixed sequence of states:
//
//	LeaseRequest -> DirectUpload -> ResponseParse -> AssetAssembly -> Done
//
// and any state may end in Failed. The lease is obtained with the
// authenticated client; the file itself is posted to the storage endpoint
// named by the lease without the API bearer token.
package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// State is a step of a single file upload
type State int

const (
	LeaseRequest State = iota
	DirectUpload
	ResponseParse
	AssetAssembly
	Done
	Failed
)

var stateNames = [...]string{
	LeaseRequest:  "lease_request",
	DirectUpload:  "direct_upload",
	ResponseParse: "response_parse",
	AssetAssembly: "asset_assembly",
	Done:          "done",
	Failed:        "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MediaAsset identifies an uploaded file
type MediaAsset struct {
	// ID is the asset id granted with the lease
	ID string `json:"id"`
	// URL is where the storage endpoint placed the file
	URL string `json:"url"`
}

// VideoAssets are the two assets of a video submission
type VideoAssets struct {
	Video  MediaAsset `json:"video"`
	Poster MediaAsset `json:"poster"`
}

// ItemError reports which file of a batch failed
type ItemError struct {
	// Index is 1-based
	Index int
	Path  string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// DefaultMimeType is used for unknown extensions
const DefaultMimeType = "image/jpeg"

var mimeTypes = map[string]string{
	"png":  "image/png",
	"mov":  "video/quicktime",
	"mp4":  "video/mp4",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// MimeType returns the upload MIME type for path's extension
func MimeType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if mimeType, ok := mimeTypes[ext]; ok {
		return mimeType
	}
	return DefaultMimeType
}
