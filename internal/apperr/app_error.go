package apperr

import "github.com/tuanvumaihuynh/nfcstore/pkg/zerror"

const (
	ValidationErrorCode     = "VALIDATION_FAILED"
	BadRequestCode          = "BAD_REQUEST"
	InvalidCredentialsCode  = "INVALID_CREDENTIALS"
	NotAuthenticatedCode    = "NOT_AUTHENTICATED"
	TokenNotValidCode       = "TOKEN_NOT_VALID"
	AuthHeaderInvalidCode   = "AUTHORIZATION_HEADER_INVALID"
	UserNotFoundCode        = "USER_NOT_FOUND"
	UserInactiveCode        = "USER_INACTIVE"
	PermissionDeniedCode    = "PERMISSION_DENIED"
	ProductNotFoundCode     = "PRODUCT_NOT_FOUND"
	NFCTagRequiredCode      = "NFC_TAG_ID_REQUIRED"
	StockUpdateInvalidCode  = "STOCK_UPDATE_INVALID"
	ServiceUnavailableCode  = "SERVICE_UNAVAILABLE"
	InternalServerErrorCode = "INTERNAL_SERVER_ERROR"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	BadRequestErr = zerror.NewBadRequest(BadRequestCode, "malformed request")

	// InvalidCredentialsErr never says which of email or password was wrong.
	InvalidCredentialsErr = zerror.NewUnauthorized(InvalidCredentialsCode, "Invalid credentials")
	NotAuthenticatedErr   = zerror.NewUnauthorized(NotAuthenticatedCode, "Authentication credentials were not provided.")
	TokenNotValidErr      = zerror.NewUnauthorized(TokenNotValidCode, "Given token not valid for any token type")
	AuthHeaderInvalidErr  = zerror.NewUnauthorized(AuthHeaderInvalidCode, "Authorization header must contain two space-delimited values")
	UserNotFoundErr       = zerror.NewUnauthorized(UserNotFoundCode, "User not found")
	UserInactiveErr       = zerror.NewUnauthorized(UserInactiveCode, "User is inactive")

	PermissionDeniedErr = zerror.NewForbidden(PermissionDeniedCode, "You do not have permission to perform this action.")

	ProductNotFoundErr    = zerror.NewNotFound(ProductNotFoundCode, "Product not found")
	NFCTagRequiredErr     = zerror.NewBadRequest(NFCTagRequiredCode, "nfc_tag_id query parameter is required")
	StockUpdateMissingErr = zerror.NewBadRequest(StockUpdateInvalidCode, `Either "quantity" or "delta" must be provided`)
	StockUpdateBothErr    = zerror.NewBadRequest(StockUpdateInvalidCode, `Provide only one of "quantity" or "delta"`)

	ServiceUnavailableErr = zerror.NewServiceUnavailable(ServiceUnavailableCode, "service unavailable")
)

// FieldInvalid returns a validation error carrying a single field detail.
func FieldInvalid(field, msg string) zerror.ZError {
	return ValidationErr.WithDetails(zerror.Detail{Field: field, Message: msg})
}
