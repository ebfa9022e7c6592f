package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/tuanvumaihuynh/nfcstore/internal/model"
)

const (
	TopicProductCreated      = "product.created"
	TopicProductUpdated      = "product.updated"
	TopicProductDeleted      = "product.deleted"
	TopicProductStockUpdated = "product.stock_updated"
)

// ProductEvent is the payload of product.created and product.updated.
type ProductEvent struct {
	ProductID     string    `json:"product_id"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	NFCTagID      string    `json:"nfc_tag_id"`
	Description   string    `json:"description"`
	Image         *string   `json:"image"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewProductEvent(p model.Product) ProductEvent {
	ev := ProductEvent{
		ProductID:     p.ID.String(),
		Name:          p.Name,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		NFCTagID:      p.NFCTagID,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
	}
	if p.Image != "" {
		ev.Image = &p.Image
	}
	return ev
}

type ProductDeletedEvent struct {
	ProductID string `json:"product_id"`
	NFCTagID  string `json:"nfc_tag_id"`
}

// StockUpdatedEvent carries the product after the change and the input that
// produced it; exactly one of Quantity and Delta is set.
type StockUpdatedEvent struct {
	ProductEvent
	Quantity *int `json:"quantity,omitempty"`
	Delta    *int `json:"delta,omitempty"`
}

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductEvent) error {
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", ev.ProductID),
		slog.String("nfc_tag_id", ev.NFCTagID),
	)
	return nil
}

func (s *Service) handleProductUpdatedEvent(ctx context.Context, ev ProductEvent) error {
	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", ev.ProductID),
		slog.String("nfc_tag_id", ev.NFCTagID),
	)
	return nil
}

func (s *Service) handleProductDeletedEvent(ctx context.Context, ev ProductDeletedEvent) error {
	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", ev.ProductID),
		slog.String("nfc_tag_id", ev.NFCTagID),
	)
	return nil
}

func (s *Service) handleProductStockUpdatedEvent(ctx context.Context, ev StockUpdatedEvent) error {
	attrs := []any{
		slog.String("product_id", ev.ProductID),
		slog.String("nfc_tag_id", ev.NFCTagID),
		slog.Int("stock_quantity", ev.StockQuantity),
	}

	// Stock has no floor; a negative level means the shelf was oversold.
	if ev.StockQuantity < 0 {
		s.logger.WarnContext(ctx, "product stock is negative", attrs...)
		return nil
	}

	s.logger.InfoContext(ctx, "product stock updated", attrs...)
	return nil
}
