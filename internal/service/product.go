package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/event"
	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/repository"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/media"
	"github.com/tuanvumaihuynh/nfcstore/pkg/outbox"
	"github.com/tuanvumaihuynh/nfcstore/pkg/ptr"
	"github.com/tuanvumaihuynh/nfcstore/pkg/validator"
)

const (
	productImageDir = "product_images"

	nfcTagTakenMsg   = "product with this nfc tag id already exists."
	invalidImageMsg  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	stockOutRangeMsg = "Ensure this value fits a 32-bit integer."
)

type CreateProductParams struct {
	Name          string           `json:"name" validate:"required,max=255"`
	Price         *decimal.Decimal `json:"price" validate:"required,price"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitnil,gte=-2147483648,lte=2147483647"`
	NFCTagID      string           `json:"nfc_tag_id" validate:"required,max=255"`
	Description   string           `json:"description"`
	// Image holds the uploaded file content; nil when no file was sent.
	Image []byte `json:"-"`
}

// UpdateProductParams changes only the fields that are set. Unless Partial is
// true, Name, Price and NFCTagID must all be set.
type UpdateProductParams struct {
	Name          *string          `json:"name" validate:"omitnil,min=1,max=255"`
	Price         *decimal.Decimal `json:"price" validate:"omitnil,price"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitnil,gte=-2147483648,lte=2147483647"`
	NFCTagID      *string          `json:"nfc_tag_id" validate:"omitnil,min=1,max=255"`
	Description   *string          `json:"description"`
	Image         []byte           `json:"-"`
	Partial       bool             `json:"-"`
}

type requiredProductFields struct {
	Name     *string          `json:"name" validate:"required"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
	NFCTagID *string          `json:"nfc_tag_id" validate:"required"`
}

// UpdateStockParams sets the stock to Quantity or moves it by Delta; exactly one must be set.
type UpdateStockParams struct {
	Quantity *int
	Delta    *int
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	LookupByNFCTag(ctx context.Context, nfcTagID string) (model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	UpdateStock(ctx context.Context, id uuid.UUID, params UpdateStockParams) (model.Product, error)
}

type productService struct {
	logger        *slog.Logger
	db            db.DB
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
	media         media.Store
	validator     validator.Validator
}

func NewProductService(
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	mediaStore media.Store,
	v validator.Validator,
) ProductService {
	return &productService{
		logger:        logger.With(slog.String("service", "product")),
		db:            db,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
		media:         mediaStore,
		validator:     v,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.NFCTagID = strings.TrimSpace(params.NFCTagID)
	params.Description = strings.TrimSpace(params.Description)

	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	product := model.Product{
		ID:            id,
		Name:          params.Name,
		Price:         *params.Price,
		StockQuantity: ptr.ValueOr(params.StockQuantity, 0),
		NFCTagID:      params.NFCTagID,
		Description:   params.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if params.Image != nil {
		image, err := s.saveImage(ctx, params.Image)
		if err != nil {
			return model.Product{}, err
		}
		product.Image = image
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		return s.writeOutbox(ctx, db, event.TopicProductCreated, product.ID, event.NewProductEvent(product))
	}); err != nil {
		s.discardImage(ctx, product.Image)
		return model.Product{}, mapProductWriteErr(err)
	}

	return product, nil
}

func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return model.Product{}, mapProductReadErr(err)
	}

	return product, nil
}

func (s *productService) LookupByNFCTag(ctx context.Context, nfcTagID string) (model.Product, error) {
	if nfcTagID == "" {
		return model.Product{}, apperr.NFCTagRequiredErr
	}

	product, err := s.productRepo.GetProductByNFCTagID(ctx, nfcTagID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, apperr.ProductNotFoundErr.
				WithMsg(fmt.Sprintf("Product with NFC tag ID %q not found", nfcTagID))
		}
		return model.Product{}, fmt.Errorf("product repository get product by nfc tag id: %w", err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error) {
	params.Name = trimPtr(params.Name)
	params.NFCTagID = trimPtr(params.NFCTagID)
	params.Description = trimPtr(params.Description)

	if !params.Partial {
		if err := s.validator.Validate(requiredProductFields{
			Name:     params.Name,
			Price:    params.Price,
			NFCTagID: params.NFCTagID,
		}); err != nil {
			return model.Product{}, err
		}
	}
	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, err
	}

	var newImage string
	if params.Image != nil {
		image, err := s.saveImage(ctx, params.Image)
		if err != nil {
			return model.Product{}, err
		}
		newImage = image
	}

	var oldImage string
	var updated model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		product, err := s.productRepo.
			WithDB(db).
			LockProductByID(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository lock product by id: %w", err)
		}

		oldImage = product.Image
		applyProductUpdate(&product, params)
		if newImage != "" {
			product.Image = newImage
		}
		product.UpdatedAt = time.Now()

		updated, err = s.productRepo.
			WithDB(db).
			UpdateProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		return s.writeOutbox(ctx, db, event.TopicProductUpdated, updated.ID, event.NewProductEvent(updated))
	}); err != nil {
		s.discardImage(ctx, newImage)
		return model.Product{}, mapProductWriteErr(err)
	}

	if newImage != "" {
		s.discardImage(ctx, oldImage)
	}

	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	var deleted model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		var err error
		deleted, err = s.productRepo.
			WithDB(db).
			DeleteProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository delete product: %w", err)
		}

		return s.writeOutbox(ctx, db, event.TopicProductDeleted, deleted.ID, event.ProductDeletedEvent{
			ProductID: deleted.ID.String(),
			NFCTagID:  deleted.NFCTagID,
		})
	}); err != nil {
		return mapProductReadErr(err)
	}

	s.discardImage(ctx, deleted.Image)
	return nil
}

func (s *productService) UpdateStock(ctx context.Context, id uuid.UUID, params UpdateStockParams) (model.Product, error) {
	switch {
	case params.Quantity == nil && params.Delta == nil:
		return model.Product{}, apperr.StockUpdateMissingErr
	case params.Quantity != nil && params.Delta != nil:
		return model.Product{}, apperr.StockUpdateBothErr
	}

	var updated model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.productRepo.WithDB(db)

		var err error
		if params.Quantity != nil {
			updated, err = repo.SetStockQuantity(ctx, id, *params.Quantity)
		} else {
			updated, err = repo.AdjustStockQuantity(ctx, id, *params.Delta)
		}
		if err != nil {
			return fmt.Errorf("product repository update stock: %w", err)
		}

		return s.writeOutbox(ctx, db, event.TopicProductStockUpdated, updated.ID, event.StockUpdatedEvent{
			ProductEvent: event.NewProductEvent(updated),
			Quantity:     params.Quantity,
			Delta:        params.Delta,
		})
	}); err != nil {
		if errors.Is(err, repository.ErrOutOfRange) || db.NumericOutOfRange(err) {
			field := "quantity"
			if params.Delta != nil {
				field = "delta"
			}
			return model.Product{}, apperr.FieldInvalid(field, stockOutRangeMsg).WrapParent(err)
		}
		return model.Product{}, mapProductReadErr(err)
	}

	return updated, nil
}

func (s *productService) writeOutbox(ctx context.Context, db db.DB, topic string, productID uuid.UUID, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if err := s.outboxMsgRepo.
		WithDB(db).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        topic,
			Headers:      outbox.Headers(ctx),
			Payload:      payload,
			PartitionKey: ptr.New(productID.String()),
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}

func (s *productService) saveImage(ctx context.Context, content []byte) (string, error) {
	name, err := s.media.Save(ctx, productImageDir, content)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			return "", apperr.FieldInvalid("image", invalidImageMsg).WrapParent(err)
		}
		return "", fmt.Errorf("media store save: %w", err)
	}
	return name, nil
}

// discardImage removes a stored image that is no longer referenced. Failures
// are logged only; the database change already happened or never will.
func (s *productService) discardImage(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.media.Delete(ctx, name); err != nil {
		s.logger.WarnContext(ctx, "error deleting product image",
			slog.String("image", name),
			slog.Any("error", err))
	}
}

func applyProductUpdate(p *model.Product, params UpdateProductParams) {
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Price != nil {
		p.Price = *params.Price
	}
	if params.StockQuantity != nil {
		p.StockQuantity = *params.StockQuantity
	}
	if params.NFCTagID != nil {
		p.NFCTagID = *params.NFCTagID
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
}

func mapProductReadErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ProductNotFoundErr.WrapParent(err)
	}
	return fmt.Errorf("db with tx: %w", err)
}

func mapProductWriteErr(err error) error {
	if constraint, ok := db.UniqueViolation(err); ok && constraint == repository.ProductNFCTagConstraint {
		return apperr.FieldInvalid("nfc_tag_id", nfcTagTakenMsg).WrapParent(err)
	}
	return mapProductReadErr(err)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return ptr.New(strings.TrimSpace(*s))
}
