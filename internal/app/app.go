// Package app assembles the services shared by the binaries under cmd/.
package app

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tuanvumaihuynh/nfcstore/internal/auth"
	"github.com/tuanvumaihuynh/nfcstore/internal/config"
	"github.com/tuanvumaihuynh/nfcstore/internal/http"
	"github.com/tuanvumaihuynh/nfcstore/internal/repository"
	"github.com/tuanvumaihuynh/nfcstore/internal/service"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/media"
	"github.com/tuanvumaihuynh/nfcstore/pkg/validator"
)

type APIConfig struct {
	HTTP  config.HTTP
	Auth  config.Auth
	Media config.Media
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewAuthService wires the auth service on top of the user store.
func NewAuthService(cfg config.Auth, dbClient db.DB) (service.AuthService, error) {
	v, err := validator.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	return service.NewAuthService(
		repository.NewUserRepository(dbClient),
		auth.NewTokenIssuer(cfg),
		auth.NewBcryptHasher(cfg.BcryptCost),
		v,
	), nil
}

// NewHTTPService wires repositories, domain services and the authenticator
// into the HTTP service.
func NewHTTPService(
	cfg APIConfig,
	logger *slog.Logger,
	reg http.Registry,
	dbClient *db.Client,
) (*http.Service, error) {
	v, err := validator.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	userRepo := repository.NewUserRepository(dbClient)
	productRepo := repository.NewProductRepository(dbClient)
	outboxMsgRepo := repository.NewOutboxMsgRepository(dbClient)

	mediaStore := media.NewFSStore(cfg.Media)
	tokens := auth.NewTokenIssuer(cfg.Auth)

	authenticator := auth.NewAuthenticator(tokens, userRepo,
		auth.CookieExtractor(cfg.Auth.AccessCookie),
		auth.BearerExtractor(),
	)

	authSvc := service.NewAuthService(userRepo, tokens, auth.NewBcryptHasher(cfg.Auth.BcryptCost), v)
	productSvc := service.NewProductService(logger, dbClient, productRepo, outboxMsgRepo, mediaStore, v)

	return http.New(
		http.Config{HTTP: cfg.HTTP, Auth: cfg.Auth, Media: cfg.Media},
		logger,
		reg,
		authenticator,
		dbClient,
		mediaStore,
		authSvc,
		productSvc,
	), nil
}
