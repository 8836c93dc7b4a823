// Package storage persists named blobs under a root location.
// The root is any afs URL: a local directory for the CLI, or
// mem://localhost/... in tests.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/viant/afs"
)

// ErrNotFound is returned when a named blob does not exist
var ErrNotFound = errors.New("blob not found")

// Blobs hold tokens and client secrets, so they are private to the owner.
const (
	FileMode os.FileMode = 0600
	DirMode              = os.ModeDir | 0700
)

// Service reads and writes blobs relative to a root
type Service struct {
	fs   afs.Service
	root string
}

// New creates a storage service rooted at root
func New(root string) *Service {
	return NewWithFS(afs.New(), root)
}

// NewWithFS creates a storage service on a caller supplied afs.Service
func NewWithFS(fs afs.Service, root string) *Service {
	return &Service{fs: fs, root: strings.TrimRight(root, "/")}
}

// Root returns the root location
func (s *Service) Root() string {
	return s.root
}

// FS returns the underlying file system service
func (s *Service) FS() afs.Service {
	return s.fs
}

// URL resolves a relative name to a location under the root
func (s *Service) URL(name string) string {
	name = strings.Trim(name, "/")
	if name == "" {
		return s.root
	}
	return s.root + "/" + name
}

// Exists reports whether name exists
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	return s.fs.Exists(ctx, s.URL(name))
}

// Read returns the raw content of name
func (s *Service) Read(ctx context.Context, name string) ([]byte, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, s.URL(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// ReadJSON decodes the JSON content of name into v
func (s *Service) ReadJSON(ctx context.Context, name string, v interface{}) error {
	data, err := s.Read(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Write replaces name with the encoded blob, creating parent folders
func (s *Service) Write(ctx context.Context, name string, blob Blob) error {
	data, err := blob.Encode()
	if err != nil {
		return err
	}
	if err := s.ensureParent(ctx, name); err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, s.URL(name), FileMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Delete removes name; folders are removed with their content.
// A missing name is not an error.
func (s *Service) Delete(ctx context.Context, name string) error {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", name, err)
	}
	if !ok {
		return nil
	}
	if err := s.fs.Delete(ctx, s.URL(name)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// Copy overwrites dst with the content of src
func (s *Service) Copy(ctx context.Context, src, dst string) error {
	data, err := s.Read(ctx, src)
	if err != nil {
		return err
	}
	return s.Write(ctx, dst, Bytes(data))
}

// List returns the sorted base names of the files directly under dir
// matching pattern. A nil pattern matches everything; a missing dir
// yields an empty list.
func (s *Service) List(ctx context.Context, dir string, pattern *regexp.Regexp) ([]string, error) {
	ok, err := s.Exists(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", dir, err)
	}
	if !ok {
		return nil, nil
	}
	objects, err := s.fs.List(ctx, s.URL(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, o := range objects {
		// the listing includes the folder itself
		if o.IsDir() {
			continue
		}
		name := o.Name()
		if pattern != nil && !pattern.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// EnsureDir creates dir when missing
func (s *Service) EnsureDir(ctx context.Context, dir string) error {
	ok, err := s.Exists(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", dir, err)
	}
	if ok {
		return nil
	}
	if err := s.fs.Create(ctx, s.URL(dir), DirMode, true); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

func (s *Service) ensureParent(ctx context.Context, name string) error {
	idx := strings.LastIndex(strings.Trim(name, "/"), "/")
	if idx <= 0 {
		return s.EnsureDir(ctx, "")
	}
	return s.EnsureDir(ctx, strings.Trim(name, "/")[:idx])
}
