package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/auth"
	"github.com/tuanvumaihuynh/nfcstore/internal/config"
	"github.com/tuanvumaihuynh/nfcstore/internal/http/metric"
	"github.com/tuanvumaihuynh/nfcstore/internal/http/middleware"
	"github.com/tuanvumaihuynh/nfcstore/internal/http/swagger"
	"github.com/tuanvumaihuynh/nfcstore/internal/service"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/media"
)

var tracer = otel.Tracer("internal/http")

// Registry is where the HTTP metrics are registered and scraped from.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

type Config struct {
	HTTP  config.HTTP
	Auth  config.Auth
	Media config.Media
}

// Service represents the HTTP service.
type Service struct {
	cfg      Config
	logger   *slog.Logger
	metrics  *metric.Metrics
	gatherer prometheus.Gatherer

	authenticator *auth.Authenticator
	health        db.HealthChecker
	media         media.ServingStore
	authSvc       service.AuthService
	productSvc    service.ProductService
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg Config,
	log *slog.Logger,
	reg Registry,
	authenticator *auth.Authenticator,
	health db.HealthChecker,
	mediaStore media.ServingStore,
	authSvc service.AuthService,
	productSvc service.ProductService,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        log.With(slog.String("service", "http")),
		metrics:       metric.New(reg),
		gatherer:      reg,
		authenticator: authenticator,
		health:        health,
		media:         mediaStore,
		authSvc:       authSvc,
		productSvc:    productSvc,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	r, err := s.Router(ctx)
	if err != nil {
		return nil, err
	}
	return s.RunWithServer(ctx, r)
}

// Router builds the full route tree with middlewares.
func (s *Service) Router(ctx context.Context) (chi.Router, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.HTTP.Swagger {
		if err := swagger.Register(ctx, r); err != nil {
			return nil, fmt.Errorf("register swagger: %w", err)
		}
	}

	s.RegisterHandlers(r)
	return r, nil
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.HTTP.Port))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorContext(ctx, "http server stopped", slog.Any("error", err))
		}
	}()

	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		chimiddleware.StripSlashes,
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.HTTP.CORSAllowedOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	authH := newAuthHandler(s, s.authSvc)
	productH := newProductHandler(s, s.productSvc)

	r.Post("/register", authH.Register)
	r.Post("/login", authH.Login)
	r.Post("/logout", authH.Logout)
	r.Post("/token/refresh", authH.Refresh)
	r.Get("/me", s.withIdentity(s.requireAuth(authH.Me)))

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.withIdentity(productH.ListProducts))
		r.Post("/", s.withIdentity(s.requireStaff(productH.CreateProduct)))
		r.Get("/lookup_nfc", s.withIdentity(productH.LookupNFC))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withIdentity(productH.GetProduct))
			r.Put("/", s.withIdentity(s.requireStaff(productH.ReplaceProduct)))
			r.Patch("/", s.withIdentity(s.requireStaff(productH.PatchProduct)))
			r.Delete("/", s.withIdentity(s.requireStaff(productH.DeleteProduct)))
			r.Patch("/update_stock", s.withIdentity(s.requireStaff(productH.UpdateStock)))
		})
	})

	r.Get(middleware.HealthPath, s.handleHealth)

	r.Method(http.MethodGet, middleware.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))

	r.Method(http.MethodGet, s.media.URLPrefix()+"*", s.media.Handler())
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if ok, err := s.health.IsHealthy(r.Context()); !ok || err != nil {
		s.logger.ErrorContext(r.Context(), "health check failed", slog.Any("error", err))
		s.writeError(w, r, apperr.ServiceUnavailableErr)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
