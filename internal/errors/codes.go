package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong identifier or password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // access token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed or forged token
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"       // token was logged out
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // duplicate email
	AuthNicknameExists     = "AUTH_NICKNAME_EXISTS"     // duplicate nickname
	AuthWeakPassword       = "AUTH_WEAK_PASSWORD"       // password too short
	AuthResetTokenInvalid  = "AUTH_RESET_TOKEN_INVALID" // reset link invalid or expired
	AuthPasswordTooLong    = "AUTH_PASSWORD_TOO_LONG"   // password over 72 bytes

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // not allowed
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // principal missing from context
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"     // admin role required
	AuthzChefOnly     = "AUTHZ_CHEF_ONLY"      // chef role required

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // bad request body
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // bad path id
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // bad format
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"  // bad range
	ValidationRequired      = "VALIDATION_REQUIRED"       // missing field

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // generic not found
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // generic duplicate
	ResourceConflict      = "RESOURCE_CONFLICT"       // generic conflict

	// ==================== Zip codes (ZIPCODE_) ====================
	ZipcodeInvalid     = "ZIPCODE_INVALID"      // not five digits
	ZipcodeUnsupported = "ZIPCODE_UNSUPPORTED"  // meal not served there
	ZipcodeNotSelected = "ZIPCODE_NOT_SELECTED" // no zip in body or session

	// ==================== Meals (MEAL_) ====================
	MealNotFound         = "MEAL_NOT_FOUND"          // unknown or deleted meal
	MealInvalidDateRange = "MEAL_INVALID_DATE_RANGE" // end before begin
	MealInvalidFilter    = "MEAL_INVALID_FILTER"     // unknown admin filter
	MealPhotoNotFound    = "MEAL_PHOTO_NOT_FOUND"    // unknown photo

	// ==================== Chef applications (APPLY_) ====================
	ApplyNotFound       = "APPLY_NOT_FOUND"       // no application
	ApplyAlreadyApplied = "APPLY_ALREADY_APPLIED" // waiting application exists
	ApplyAlreadyDecided = "APPLY_ALREADY_DECIDED" // opposite decision already taken
	ApplyInvalidStatus  = "APPLY_INVALID_STATUS"  // unknown status filter

	// ==================== Orders (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"          // unknown order
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION" // state machine violation
	OrderCannotCancel      = "ORDER_CANNOT_CANCEL"      // handled orders cannot be canceled
	OrderInvalidStatus     = "ORDER_INVALID_STATUS"     // unknown status filter

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // unsupported content type
	UploadFailed          = "UPLOAD_FAILED"            // storage failure

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // unexpected failure
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // database failure
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // upstream failure
)
