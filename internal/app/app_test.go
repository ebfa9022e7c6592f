package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/nfcstore/internal/app"
	"github.com/tuanvumaihuynh/nfcstore/internal/config"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
)

func TestNewHTTPService(t *testing.T) {
	cfg := app.APIConfig{
		HTTP: config.HTTP{Swagger: true},
		Auth: config.Auth{
			SigningKey:    "k",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			AccessCookie:  "jwt_access",
			RefreshCookie: "jwt_refresh",
			BcryptCost:    4,
		},
		Media: config.Media{Root: t.TempDir(), URLPrefix: "/media/"},
	}
	reg := app.NewRegistry()

	svc, err := app.NewHTTPService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), reg, db.NewClient(nil))
	require.NoError(t, err)

	r, err := svc.Router(context.Background())
	require.NoError(t, err)

	t.Run("Should expose runtime metrics", func(t *testing.T) {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "go_goroutines")
		assert.Contains(t, resp.Body.String(), "nfcstore_http_inflight_requests")
	})

	t.Run("Should reject anonymous me", func(t *testing.T) {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestServeMetrics(t *testing.T) {
	reg := app.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cleanup, err := app.ServeMetrics(context.Background(), logger, "127.0.0.1:0", reg)
	require.NoError(t, err)
	require.NoError(t, cleanup(context.Background()))
}
