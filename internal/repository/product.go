package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
)

// ProductNFCTagConstraint is the unique constraint guarding nfc_tag_id.
const ProductNFCTagConstraint = "products_nfc_tag_id_key"

const productColumns = `id, name, price, stock_quantity, nfc_tag_id, description, image, created_at, updated_at`

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error)
	// LockProductByID reads a product and locks its row until the surrounding transaction ends.
	LockProductByID(ctx context.Context, id uuid.UUID) (model.Product, error)
	GetProductByNFCTagID(ctx context.Context, nfcTagID string) (model.Product, error)
	UpdateProduct(ctx context.Context, product model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	SetStockQuantity(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error)
	AdjustStockQuantity(ctx context.Context, id uuid.UUID, delta int) (model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	args, err := productArgs(product)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (@id, @name, @price, @stock_quantity, @nfc_tag_id, @description, @image, @created_at, @updated_at)
	`, args); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	dbProducts, err := pgx.CollectRows(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	products := make([]model.Product, 0, len(dbProducts))
	for _, p := range dbProducts {
		product, err := p.toModel()
		if err != nil {
			return nil, fmt.Errorf("convert product %s: %w", p.ID, err)
		}
		products = append(products, product)
	}

	return products, nil
}

func (r productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r productRepository) LockProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r productRepository) GetProductByNFCTagID(ctx context.Context, nfcTagID string) (model.Product, error) {
	return r.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE nfc_tag_id = $1`, nfcTagID)
}

func (r productRepository) UpdateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	args, err := productArgs(product)
	if err != nil {
		return model.Product{}, err
	}

	return r.queryOne(ctx, `
		UPDATE products
		SET
			name           = @name,
			price          = @price,
			stock_quantity = @stock_quantity,
			nfc_tag_id     = @nfc_tag_id,
			description    = @description,
			image          = @image,
			updated_at     = @updated_at
		WHERE id = @id
		RETURNING `+productColumns, args)
}

func (r productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.queryOne(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns, id)
}

func (r productRepository) SetStockQuantity(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error) {
	if err := checkInt32("stock quantity", quantity); err != nil {
		return model.Product{}, err
	}

	return r.queryOne(ctx, `
		UPDATE products
		SET stock_quantity = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+productColumns, id, quantity, time.Now())
}

// AdjustStockQuantity applies delta in a single statement so concurrent adjustments never lose updates.
func (r productRepository) AdjustStockQuantity(ctx context.Context, id uuid.UUID, delta int) (model.Product, error) {
	if err := checkInt32("stock delta", delta); err != nil {
		return model.Product{}, err
	}

	return r.queryOne(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = $3
		WHERE id = $1
		RETURNING `+productColumns, id, delta, time.Now())
}

func (r productRepository) queryOne(ctx context.Context, sql string, args ...any) (model.Product, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[productRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("collect product: %w", err)
	}

	return p.toModel()
}

type productRow struct {
	ID            uuid.UUID      `db:"id"`
	Name          string         `db:"name"`
	Price         pgtype.Numeric `db:"price"`
	StockQuantity int32          `db:"stock_quantity"`
	NFCTagID      string         `db:"nfc_tag_id"`
	Description   string         `db:"description"`
	Image         *string        `db:"image"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (p productRow) toModel() (model.Product, error) {
	if !p.Price.Valid || p.Price.NaN || p.Price.InfinityModifier != pgtype.Finite {
		return model.Product{}, fmt.Errorf("invalid price value")
	}

	product := model.Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         decimal.NewFromBigInt(p.Price.Int, p.Price.Exp),
		StockQuantity: int(p.StockQuantity),
		NFCTagID:      p.NFCTagID,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Image != nil {
		product.Image = *p.Image
	}

	return product, nil
}

func productArgs(product model.Product) (pgx.NamedArgs, error) {
	if err := checkInt32("stock quantity", product.StockQuantity); err != nil {
		return nil, err
	}

	var image *string
	if product.Image != "" {
		image = &product.Image
	}

	return pgx.NamedArgs{
		"id":             product.ID,
		"name":           product.Name,
		"price":          pgtype.Numeric{Int: product.Price.Coefficient(), Exp: product.Price.Exponent(), Valid: true},
		"stock_quantity": int32(product.StockQuantity), //nolint:gosec // range checked above
		"nfc_tag_id":     product.NFCTagID,
		"description":    product.Description,
		"image":          image,
		"created_at":     product.CreatedAt,
		"updated_at":     product.UpdatedAt,
	}, nil
}

func checkInt32(what string, v int) error {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return fmt.Errorf("%s out of range: %d: %w", what, v, ErrOutOfRange)
	}
	return nil
}
