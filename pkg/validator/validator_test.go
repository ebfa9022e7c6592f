package validator_test

import (
	"errors"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/nfcstore/pkg/ptr"
	"github.com/tuanvumaihuynh/nfcstore/pkg/validator"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,notnumeric,notcommon"`
}

type priced struct {
	Price *decimal.Decimal `json:"price" validate:"required,price"`
}

func newValidator(t *testing.T) *validator.DefaultValidator {
	t.Helper()
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)
	return v
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var ves govalidator.ValidationErrors
	require.True(t, errors.As(err, &ves))

	out := map[string]string{}
	for _, fe := range ves {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func TestPasswordRules(t *testing.T) {
	v := newValidator(t)

	cases := []struct {
		name     string
		password string
		tag      string
	}{
		{"too short", "abc123", "min"},
		{"entirely numeric", "8675309123", "notnumeric"},
		{"common", "Password123", "notcommon"},
	}

	for _, tc := range cases {
		t.Run("Should reject "+tc.name, func(t *testing.T) {
			err := v.Validate(signup{Email: "a@example.com", Password: tc.password})
			require.Error(t, err)
			assert.Equal(t, tc.tag, fieldErrors(t, err)["password"])
		})
	}

	t.Run("Should accept strong password", func(t *testing.T) {
		assert.NoError(t, v.Validate(signup{Email: "a@example.com", Password: "tag-reader-42"}))
	})

	t.Run("Should report json field name", func(t *testing.T) {
		err := v.Validate(signup{Email: "nope", Password: "tag-reader-42"})
		assert.Equal(t, "email", fieldErrors(t, err)["email"])
	})
}

func TestPriceRule(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Validate(priced{Price: ptr.New(decimal.RequireFromString("19.99"))}))
	assert.NoError(t, v.Validate(priced{Price: ptr.New(decimal.RequireFromString("99999999.99"))}))

	err := v.Validate(priced{Price: ptr.New(decimal.RequireFromString("1.999"))})
	assert.Equal(t, "price", fieldErrors(t, err)["price"])

	err = v.Validate(priced{Price: ptr.New(decimal.RequireFromString("100000000"))})
	assert.Equal(t, "price", fieldErrors(t, err)["price"])

	err = v.Validate(priced{})
	assert.Equal(t, "required", fieldErrors(t, err)["price"])
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, validator.IsNumeric("0123"))
	assert.False(t, validator.IsNumeric(""))
	assert.False(t, validator.IsNumeric("12a"))
}

func TestIsSimilarPassword(t *testing.T) {
	assert.True(t, validator.IsSimilarPassword("alice.nfc", "alice.nfc@example.com"))
	assert.True(t, validator.IsSimilarPassword("Alicenfc1", "alicenfc@example.com"))
	assert.False(t, validator.IsSimilarPassword("tag-reader-42", "alice@example.com"))
	assert.False(t, validator.IsSimilarPassword("tag-reader-42", ""))
}
