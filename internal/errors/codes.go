package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The frontend maps these codes to user-facing messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"       // sign-in required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed or forged token
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // token was signed out
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // email already registered

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // no access
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // role missing from context
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"     // admin-only operation

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // bad request body
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // malformed identifier
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE" // value out of range
	ValidationRequired     = "VALIDATION_REQUIRED"      // required field missing

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // no such record
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // duplicate record
	ResourceConflict      = "RESOURCE_CONFLICT"       // constraint conflict

	// ==================== Catalog (PRODUCT_) ====================
	ProductNotFound = "PRODUCT_NOT_FOUND" // product missing or deleted

	// ==================== Cart (CART_) ====================
	CartItemNotFound = "CART_ITEM_NOT_FOUND" // cart row missing

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // non-image content type
	UploadFailed          = "UPLOAD_FAILED"            // presign/storage failure

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // unexpected failure
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // store failure
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // upstream service failure
)
