package http_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/auth"
	"github.com/tuanvumaihuynh/nfcstore/internal/config"
	nshttp "github.com/tuanvumaihuynh/nfcstore/internal/http"
	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/repository"
	"github.com/tuanvumaihuynh/nfcstore/internal/service"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/media"
)

type fakeUsers map[uuid.UUID]model.User

func (f fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	u, ok := f[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type fakeAuthService struct {
	tokens *auth.TokenIssuer
	users  fakeUsers
	// passwords maps email to plain password.
	passwords map[string]string
}

func (f *fakeAuthService) Register(_ context.Context, params service.RegisterParams) (model.User, error) {
	if params.Email == "" {
		return model.User{}, apperr.FieldInvalid("email", "field is required")
	}
	u := model.User{ID: uuid.Must(uuid.NewV7()), Email: params.Email, Name: params.FullName, IsActive: true}
	f.users[u.ID] = u
	f.passwords[u.Email] = params.Password
	return u, nil
}

func (f *fakeAuthService) CreateStaff(context.Context, service.CreateStaffParams) (model.User, error) {
	return model.User{}, errors.New("not used")
}

func (f *fakeAuthService) Login(_ context.Context, params service.LoginParams) (model.User, auth.TokenPair, error) {
	for _, u := range f.users {
		if u.Email == params.Email && f.passwords[u.Email] == params.Password {
			pair, err := f.tokens.IssuePair(u.ID)
			return u, pair, err
		}
	}
	return model.User{}, auth.TokenPair{}, apperr.InvalidCredentialsErr
}

func (f *fakeAuthService) Refresh(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.NotAuthenticatedErr
	}
	id, err := f.tokens.ValidateRefresh(token)
	if err != nil {
		return "", apperr.TokenNotValidErr.WrapParent(err)
	}
	if _, err := auth.LoadActiveUser(ctx, f.users, id); err != nil {
		return "", err
	}
	return f.tokens.IssueAccess(id)
}

type fakeProductService struct {
	products map[uuid.UUID]model.Product

	lastCreate service.CreateProductParams
	lastUpdate service.UpdateProductParams
	lastStock  service.UpdateStockParams
}

func (f *fakeProductService) CreateProduct(_ context.Context, params service.CreateProductParams) (model.Product, error) {
	f.lastCreate = params
	if params.Price == nil {
		return model.Product{}, apperr.FieldInvalid("price", "field is required")
	}
	p := model.Product{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        params.Name,
		Price:       *params.Price,
		NFCTagID:    params.NFCTagID,
		Description: params.Description,
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if params.Image != nil {
		p.Image = "product_images/new.png"
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductService) ListAllProducts(context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductService) GetProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	return p, nil
}

func (f *fakeProductService) LookupByNFCTag(_ context.Context, tag string) (model.Product, error) {
	if tag == "" {
		return model.Product{}, apperr.NFCTagRequiredErr
	}
	for _, p := range f.products {
		if p.NFCTagID == tag {
			return p, nil
		}
	}
	return model.Product{}, apperr.ProductNotFoundErr
}

func (f *fakeProductService) UpdateProduct(_ context.Context, id uuid.UUID, params service.UpdateProductParams) (model.Product, error) {
	f.lastUpdate = params
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Price != nil {
		p.Price = *params.Price
	}
	f.products[id] = p
	return p, nil
}

func (f *fakeProductService) DeleteProduct(_ context.Context, id uuid.UUID) error {
	if _, ok := f.products[id]; !ok {
		return apperr.ProductNotFoundErr
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductService) UpdateStock(_ context.Context, id uuid.UUID, params service.UpdateStockParams) (model.Product, error) {
	f.lastStock = params
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	switch {
	case params.Quantity != nil && params.Delta != nil:
		return model.Product{}, apperr.StockUpdateBothErr
	case params.Quantity != nil:
		p.StockQuantity = *params.Quantity
	case params.Delta != nil:
		p.StockQuantity += *params.Delta
	default:
		return model.Product{}, apperr.StockUpdateMissingErr
	}
	f.products[id] = p
	return p, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) IsHealthy(context.Context) (bool, error) { return f.err == nil, f.err }

type testEnv struct {
	router   http.Handler
	tokens   *auth.TokenIssuer
	users    fakeUsers
	authSvc  *fakeAuthService
	products *fakeProductService
	health   *fakeHealth
	cfg      nshttp.Config

	staff    model.User
	customer model.User
	product  model.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := nshttp.Config{
		HTTP: config.HTTP{Swagger: true, CORSAllowedOrigins: []string{"http://localhost:5173"}},
		Auth: config.Auth{
			SigningKey:     "test-signing-key",
			Issuer:         "nfcstore",
			AccessTTL:      time.Hour,
			RefreshTTL:     24 * time.Hour,
			AccessCookie:   "jwt_access",
			RefreshCookie:  "jwt_refresh",
			CookieSecure:   true,
			CookieSameSite: config.SameSite(http.SameSiteLaxMode),
		},
		Media: config.Media{Root: t.TempDir(), URLPrefix: "/media/", MaxUploadBytes: 1 << 16},
	}

	tokens := auth.NewTokenIssuer(cfg.Auth)
	staff := model.User{ID: uuid.Must(uuid.NewV7()), Email: "staff@example.com", Name: "Staff", IsActive: true, IsStaff: true}
	customer := model.User{ID: uuid.Must(uuid.NewV7()), Email: "jane@example.com", Name: "Jane", IsActive: true}
	users := fakeUsers{staff.ID: staff, customer.ID: customer}

	product := model.Product{
		ID:            uuid.Must(uuid.NewV7()),
		Name:          "Coffee Mug",
		Price:         decimal.RequireFromString("19.9"),
		StockQuantity: 4,
		NFCTagID:      "NFC-001",
		Description:   "Ceramic",
		Image:         "product_images/mug.png",
		CreatedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	authSvc := &fakeAuthService{
		tokens:    tokens,
		users:     users,
		passwords: map[string]string{staff.Email: "s3cret-pass", customer.Email: "j4ne-pass"},
	}
	products := &fakeProductService{products: map[uuid.UUID]model.Product{product.ID: product}}
	health := &fakeHealth{}

	authenticator := auth.NewAuthenticator(tokens, users,
		auth.CookieExtractor(cfg.Auth.AccessCookie),
		auth.BearerExtractor(),
	)

	svc := nshttp.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry(),
		authenticator, health, media.NewFSStore(cfg.Media), authSvc, products)

	router, err := svc.Router(context.Background())
	require.NoError(t, err)

	return &testEnv{
		router:   router,
		tokens:   tokens,
		users:    users,
		authSvc:  authSvc,
		products: products,
		health:   health,
		cfg:      cfg,
		staff:    staff,
		customer: customer,
		product:  product,
	}
}

func (e *testEnv) accessToken(t *testing.T, u model.User) string {
	t.Helper()
	token, err := e.tokens.IssueAccess(u.ID)
	require.NoError(t, err)
	return token
}
