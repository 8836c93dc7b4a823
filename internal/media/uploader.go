package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/mpost-project/mpost-cli/internal/api"
	"github.com/mpost-project/mpost-cli/internal/apperr"
	"github.com/mpost-project/mpost-cli/internal/config"
	"github.com/mpost-project/mpost-cli/internal/logging"
	"github.com/mpost-project/mpost-cli/internal/storage"
	"github.com/viant/afs"
)

// LeaseFolder is sent as the lease filepath
const LeaseFolder = "~/uploads"

// APIClient is the part of the authenticated client the uploader needs
type APIClient interface {
	Do(ctx context.Context, method, resource string, opts *api.RequestOptions) (*api.Response, error)
	SessionCookies(ctx context.Context) ([]*http.Cookie, error)
}

// Uploader runs uploads one file at a time
type Uploader struct {
	client    APIClient
	leasePath string
	// fs reads the source files; any afs URL or local path works
	fs     afs.Service
	store  *storage.Service
	direct *http.Client
	logger *slog.Logger
}

// Option configures an Uploader
type Option func(*Uploader)

// WithStorageClient sets the client used for the direct upload
func WithStorageClient(client *http.Client) Option {
	return func(u *Uploader) {
		u.direct = client
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// WithFS sets the file system used to read source files
func WithFS(fs afs.Service) Option {
	return func(u *Uploader) {
		u.fs = fs
	}
}

// NewUploader creates an uploader leasing from leasePath. store holds the
// temporary poster images.
func NewUploader(client APIClient, leasePath string, store *storage.Service, opts ...Option) *Uploader {
	u := &Uploader{
		client:    client,
		leasePath: leasePath,
		fs:        store.FS(),
		store:     store,
		direct:    &http.Client{Timeout: config.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = logging.OrDiscard(u.logger)
	return u
}

// lease is the upload grant returned by the API
type lease struct {
	Args struct {
		Action string       `json:"action"`
		Fields []leaseField `json:"fields"`
	} `json:"args"`
	Asset struct {
		AssetID string `json:"asset_id"`
	} `json:"asset"`
}

type leaseField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// job carries one file through the states
type job struct {
	path     string
	mimeType string
	state    State
	lease    *lease
	status   int
	body     []byte
	location string
	asset    *MediaAsset
}

// Upload sends the file at path and returns the resulting asset
func (u *Uploader) Upload(ctx context.Context, path string) (*MediaAsset, error) {
	j := &job{path: path, mimeType: MimeType(path), state: LeaseRequest}

	for j.state != Done {
		var err error
		switch j.state {
		case LeaseRequest:
			err = u.requestLease(ctx, j)
		case DirectUpload:
			err = u.uploadDirect(ctx, j)
		case ResponseParse:
			err = u.parseResponse(j)
		case AssetAssembly:
			j.asset = &MediaAsset{ID: j.lease.Asset.AssetID, URL: j.location}
		}
		if err != nil {
			u.logger.Debug("upload failed", "path", path, "state", j.state.String(), "error", err)
			j.state = Failed
			return nil, err
		}
		j.state++
		u.logger.Debug("upload state", "path", path, "state", j.state.String())
	}
	return j.asset, nil
}

func (u *Uploader) requestLease(ctx context.Context, j *job) error {
	const op = "lease"

	cookies, err := u.client.SessionCookies(ctx)
	if err != nil {
		return leaseError(op, err)
	}

	form := url.Values{}
	form.Set("mimetype", j.mimeType)
	form.Set("filepath", LeaseFolder)

	resp, err := u.client.Do(ctx, http.MethodPost, u.leasePath, &api.RequestOptions{Form: form, Cookies: cookies})
	if err != nil {
		return leaseError(op, err)
	}

	var l lease
	if err := resp.DecodeJSON(&l); err != nil {
		return &apperr.Error{Kind: apperr.Lease, Op: op, Status: resp.StatusCode, Body: string(resp.Body), Err: err}
	}
	if l.Args.Action == "" || l.Asset.AssetID == "" {
		return &apperr.Error{Kind: apperr.Lease, Op: op, Status: resp.StatusCode, Body: string(resp.Body), Err: fmt.Errorf("incomplete lease")}
	}
	l.Args.Action = actionURL(l.Args.Action)
	j.lease = &l
	return nil
}

// leaseError keeps credential errors as they are so the caller can
// send the user back to login
func leaseError(op string, err error) error {
	if apperr.IsCredential(err) {
		return err
	}
	e := &apperr.Error{Kind: apperr.Lease, Op: op, Err: err}
	if ae, ok := err.(*apperr.Error); ok {
		e.Status, e.Body = ae.Status, ae.Body
	}
	return e
}

// actionURL completes the protocol relative URLs the API hands out
func actionURL(action string) string {
	switch {
	case strings.HasPrefix(action, "//"):
		return "https:" + action
	case strings.HasPrefix(action, "http://"), strings.HasPrefix(action, "https://"):
		return action
	default:
		return "https://" + action
	}
}

func (u *Uploader) uploadDirect(ctx context.Context, j *job) error {
	const op = "upload"

	content, err := u.fs.DownloadWithURL(ctx, j.path)
	if err != nil {
		return apperr.New(apperr.UploadFailed, op, fmt.Errorf("failed to read %s: %w", j.path, err))
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, field := range j.lease.Args.Fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return apperr.New(apperr.UploadFailed, op, fmt.Errorf("failed to write %s field: %w", field.Name, err))
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(j.path)))
	header.Set("Content-Type", j.mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return apperr.New(apperr.UploadFailed, op, fmt.Errorf("failed to create form file: %w", err))
	}
	if _, err := part.Write(content); err != nil {
		return apperr.New(apperr.UploadFailed, op, fmt.Errorf("failed to copy file content: %w", err))
	}
	if err := writer.Close(); err != nil {
		return apperr.New(apperr.UploadFailed, op, fmt.Errorf("failed to close multipart writer: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.lease.Args.Action, body)
	if err != nil {
		return apperr.New(apperr.UploadFailed, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.direct.Do(req)
	if err != nil {
		return apperr.New(apperr.UploadFailed, op, err)
	}
	defer resp.Body.Close()

	j.status = resp.StatusCode
	if j.body, err = io.ReadAll(resp.Body); err != nil {
		return &apperr.Error{Kind: apperr.UploadFailed, Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

func (u *Uploader) parseResponse(j *job) error {
	const op = "upload response"

	reply, err := parseStorageReply(j.body)
	if j.status < 200 || j.status > 299 {
		e := &apperr.Error{Kind: apperr.UploadFailed, Op: op, Status: j.status, Body: string(j.body)}
		if reply != nil {
			e.Code = reply.code
		}
		return e
	}
	if err != nil {
		return &apperr.Error{Kind: apperr.UploadFailed, Op: op, Status: j.status, Body: string(j.body), Err: err}
	}
	if reply.failed() {
		e := &apperr.Error{Kind: apperr.UploadFailed, Op: op, Status: j.status, Code: reply.code, Body: string(j.body)}
		if reply.location == "" && reply.code == "" && reply.root != "Error" {
			e.Err = fmt.Errorf("no location in storage response")
		}
		return e
	}
	j.location = reply.location
	return nil
}
