package storage

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// TempDir is the working area for stashed files
const TempDir = "temp"

// Stash writes blob under dir with a random name and the given extension.
// It returns the relative name of the new entry.
func (s *Service) Stash(ctx context.Context, dir, ext string, blob Blob) (string, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	name := strings.Trim(dir, "/") + "/" + id + "." + strings.TrimPrefix(ext, ".")
	if err := s.Write(ctx, name, blob); err != nil {
		return "", err
	}
	return name, nil
}

// Unstash deletes previously stashed entries
func (s *Service) Unstash(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := s.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
