package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/repository"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/media"
	"github.com/tuanvumaihuynh/nfcstore/pkg/validator"
)

type fakeDB struct {
	db.DB
}

func (f fakeDB) WithTx(_ context.Context, fn func(db.DB) error) error {
	return fn(f)
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uuid.UUID]model.Product{}}
}

func (f *fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return f }

func (f *fakeProductRepo) checkTag(p model.Product) error {
	for _, other := range f.products {
		if other.ID != p.ID && other.NFCTagID == p.NFCTagID {
			return fmt.Errorf("insert product: %w", uniqueViolation(repository.ProductNFCTagConstraint))
		}
	}
	return nil
}

func (f *fakeProductRepo) CreateProduct(_ context.Context, p model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkTag(p); err != nil {
		return err
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) ListAllProducts(context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Product) int { return strings.Compare(b.ID.String(), a.ID.String()) })
	return out, nil
}

func (f *fakeProductRepo) GetProductByID(_ context.Context, id uuid.UUID) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) LockProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return f.GetProductByID(ctx, id)
}

func (f *fakeProductRepo) GetProductByNFCTagID(_ context.Context, tag string) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.NFCTagID == tag {
			return p, nil
		}
	}
	return model.Product{}, repository.ErrNotFound
}

func (f *fakeProductRepo) UpdateProduct(_ context.Context, p model.Product) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return model.Product{}, repository.ErrNotFound
	}
	if err := f.checkTag(p); err != nil {
		return model.Product{}, err
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) DeleteProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	delete(f.products, id)
	return p, nil
}

func (f *fakeProductRepo) SetStockQuantity(_ context.Context, id uuid.UUID, quantity int) (model.Product, error) {
	return f.mutateStock(id, func(int) int { return quantity })
}

func (f *fakeProductRepo) AdjustStockQuantity(_ context.Context, id uuid.UUID, delta int) (model.Product, error) {
	return f.mutateStock(id, func(cur int) int { return cur + delta })
}

func (f *fakeProductRepo) mutateStock(id uuid.UUID, fn func(int) int) (model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	p.StockQuantity = fn(p.StockQuantity)
	f.products[p.ID] = p
	return p, nil
}

type fakeOutboxRepo struct {
	mu   sync.Mutex
	msgs []repository.CreateOutboxMsgParams
}

func (f *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return f }

func (f *fakeOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, params)
	return nil
}

func (f *fakeOutboxRepo) LockUnprocessedOutboxMsgs(context.Context, int32) ([]repository.OutboxMsg, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkOutboxMsgsProcessed(context.Context, []repository.OutboxMsgResult) error {
	return nil
}

func (f *fakeOutboxRepo) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.Topic
	}
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]model.User{}}
}

func (f *fakeUserRepo) WithDB(db.DB) repository.UserRepository { return f }

func (f *fakeUserRepo) CreateUser(_ context.Context, u model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.users {
		if strings.EqualFold(other.Email, u.Email) {
			return fmt.Errorf("insert user: %w", uniqueViolation(repository.UserEmailConstraint))
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserRepo) ExistsUserByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

type fakeMedia struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{files: map[string][]byte{}}
}

func (f *fakeMedia) Save(_ context.Context, dir string, content []byte) (string, error) {
	if !strings.HasPrefix(string(content), "\x89PNG") {
		return "", media.ErrNotImage
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name := dir + "/" + uuid.NewString() + ".png"
	f.files[name] = content
	return name, nil
}

func (f *fakeMedia) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, name)
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeMedia) URL(name string) string {
	return "/media/" + name
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestValidator(t *testing.T) validator.Validator {
	t.Helper()
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)
	return v
}
