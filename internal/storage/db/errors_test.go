package db_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert product: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "products_nfc_tag_id_key",
	})

	constraint, ok := db.UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "products_nfc_tag_id_key", constraint)

	_, ok = db.UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = db.UniqueViolation(errors.New("boom"))
	assert.False(t, ok)
}

func TestNumericOutOfRange(t *testing.T) {
	assert.True(t, db.NumericOutOfRange(fmt.Errorf("adjust stock: %w", &pgconn.PgError{Code: "22003"})))
	assert.False(t, db.NumericOutOfRange(&pgconn.PgError{Code: "23505"}))
}
