package media_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/nfcstore/internal/config"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/media"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestFSStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := media.NewFSStore(config.Media{Root: root, URLPrefix: "/media"})

	t.Run("Should save image under dir", func(t *testing.T) {
		name, err := s.Save(ctx, "product_images", pngBytes)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(name, "product_images/"))
		assert.True(t, strings.HasSuffix(name, ".png"))

		got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, pngBytes, got)

		assert.Equal(t, "/media/"+name, s.URL(name))
	})

	t.Run("Should reject non image content", func(t *testing.T) {
		_, err := s.Save(ctx, "product_images", []byte("hello, plain text"))
		assert.ErrorIs(t, err, media.ErrNotImage)
	})

	t.Run("Should delete saved file", func(t *testing.T) {
		name, err := s.Save(ctx, "product_images", pngBytes)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, name))
		_, err = os.Stat(filepath.Join(root, filepath.FromSlash(name)))
		assert.True(t, os.IsNotExist(err))

		assert.NoError(t, s.Delete(ctx, name))
		assert.NoError(t, s.Delete(ctx, ""))
	})

	t.Run("Should serve saved files but not directories", func(t *testing.T) {
		name, err := s.Save(ctx, "product_images", pngBytes)
		require.NoError(t, err)
		assert.Equal(t, "/media/", s.URLPrefix())

		h := s.Handler()
		for path, want := range map[string]int{
			s.URL(name):              http.StatusOK,
			"/media/":                http.StatusNotFound,
			"/media/product_images":  http.StatusNotFound,
			"/media/product_images/": http.StatusNotFound,
			"/media/missing.png":     http.StatusNotFound,
		} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, want, rec.Code, path)
		}
	})

	t.Run("Should refuse paths outside root", func(t *testing.T) {
		assert.Error(t, s.Delete(ctx, "../outside.png"))
	})
}
