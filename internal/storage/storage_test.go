package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	root := "mem://localhost/storage/" + strings.ReplaceAll(t.Name(), "/", "_")
	return New(root)
}

func TestService_WriteRead(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	tests := []struct {
		name string
		blob Blob
		want string
	}{
		{name: "text", blob: Text("hello"), want: "hello"},
		{name: "bytes", blob: Bytes([]byte{'a', 'b'}), want: "ab"},
		{name: "json", blob: JSON(map[string]int{"expires_in": 3600}), want: `{"expires_in":3600}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Write(ctx, "blobs/"+tt.name, tt.blob))
			data, err := s.Read(ctx, "blobs/"+tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestService_WriteImage(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	require.NoError(t, s.Write(ctx, "poster.jpg", Image(img)))

	data, err := s.Read(ctx, "poster.jpg")
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), decoded.Bounds())
}

func TestService_ReadMissing(t *testing.T) {
	s := newTestService(t)

	_, err := s.Read(context.Background(), "nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	require.NoError(t, s.Write(ctx, "slot.json", Text("first value that is longer")))
	require.NoError(t, s.Write(ctx, "slot.json", Text("second")))

	data, err := s.Read(ctx, "slot.json")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestService_ListWithPattern(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	require.NoError(t, s.Write(ctx, "home/usr.bob.json", Text("{}")))
	require.NoError(t, s.Write(ctx, "home/usr.alice.json", Text("{}")))
	require.NoError(t, s.Write(ctx, "home/notes.txt", Text("x")))

	names, err := s.List(ctx, "home", regexp.MustCompile(`^usr\..+\.json$`))
	require.NoError(t, err)
	assert.Equal(t, []string{"usr.alice.json", "usr.bob.json"}, names)
}

func TestService_ListMissingDir(t *testing.T) {
	s := newTestService(t)

	names, err := s.List(context.Background(), "home", nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestService_CopyAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	require.NoError(t, s.Write(ctx, "home/usr.alice.json", Text(`{"username":"alice"}`)))
	require.NoError(t, s.Copy(ctx, "home/usr.alice.json", "usr.current.json"))

	data, err := s.Read(ctx, "usr.current.json")
	require.NoError(t, err)
	assert.Equal(t, `{"username":"alice"}`, string(data))

	require.NoError(t, s.Delete(ctx, "home"))
	ok, err := s.Exists(ctx, "home/usr.alice.json")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, "home"))
}

func TestService_CopyMissingSource(t *testing.T) {
	s := newTestService(t)

	err := s.Copy(context.Background(), "home/usr.ghost.json", "usr.current.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_StashUnstash(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	name, err := s.Stash(ctx, "temp", "jpg", Bytes([]byte("jpeg")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "temp/"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	ok, err := s.Exists(ctx, name)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Unstash(ctx, name))
	ok, err = s.Exists(ctx, name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_PrivateModes(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "mpost")
	s := New(root)

	require.NoError(t, s.Write(ctx, "usr.current.json", Text(`{"access_token":"secret"}`)))
	require.NoError(t, s.Write(ctx, "home/usr.alice.json", Text("{}")))
	require.NoError(t, s.EnsureDir(ctx, "temp"))

	for _, name := range []string{"usr.current.json", "home/usr.alice.json"} {
		info, err := os.Stat(filepath.Join(root, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}
	for _, dir := range []string{"", "home", "temp"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm(), dir)
	}
}
