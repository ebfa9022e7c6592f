package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/nfcstore/internal/config"
)

// ErrNotImage is returned by Save when the content is not a supported image.
var ErrNotImage = errors.New("not a supported image")

var imageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Store keeps uploaded files under media-relative paths such as
// "product_images/0192f0c4-....png".
type Store interface {
	Save(ctx context.Context, dir string, content []byte) (string, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// ServingStore is a Store whose files are also served over HTTP under URLPrefix.
type ServingStore interface {
	Store
	URLPrefix() string
	Handler() http.Handler
}

var _ ServingStore = (*FSStore)(nil)

type FSStore struct {
	root      string
	urlPrefix string
}

func NewFSStore(cfg config.Media) *FSStore {
	prefix := cfg.URLPrefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &FSStore{root: cfg.Root, urlPrefix: prefix}
}

func (s *FSStore) URLPrefix() string {
	return s.urlPrefix
}

// Handler serves stored files for request paths under URLPrefix. Directories
// are reported as not found so uploads cannot be listed.
func (s *FSStore) Handler() http.Handler {
	return http.StripPrefix(s.urlPrefix, http.FileServer(filesOnly{http.Dir(s.root)}))
}

// Save writes an image under dir with a generated name and returns its media-relative path.
func (s *FSStore) Save(_ context.Context, dir string, content []byte) (string, error) {
	mt := mimetype.Detect(content)
	if !mimetype.EqualsAny(mt.String(), imageTypes...) {
		return "", fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid v7: %w", err)
	}

	name := path.Join(dir, id.String()+mt.Extension())
	full, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := bytes.NewReader(content).WriteTo(tmp); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close media file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("rename media file: %w", err)
	}

	return name, nil
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *FSStore) Delete(_ context.Context, name string) error {
	if name == "" {
		return nil
	}

	full, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

func (s *FSStore) URL(name string) string {
	return s.urlPrefix + name
}

func (s *FSStore) resolve(name string) (string, error) {
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("media path escapes root: %q", name)
	}
	return filepath.Join(s.root, local), nil
}

type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
