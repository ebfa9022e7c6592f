package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uuid.UUID
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	NFCTagID      string
	Description   string
	// Image is the media-relative path of the product image, empty when unset.
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
