package httputil

// Machine-readable error codes returned in the Code field of ErrorResponse.
// Clients should branch on these, not on the human-readable message.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeInternalError      = "internal_error"
	CodeTooManyRequests    = "too_many_requests"

	// auth
	CodeMissingAuth         = "missing_auth"
	CodeInvalidAuthHeader   = "invalid_auth_header"
	CodeInvalidToken        = "invalid_token"
	CodeTokenExpired        = "token_expired"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeUnauthenticated     = "unauthenticated"
	CodeOAuthExchangeFailed = "oauth_exchange_failed"

	// signup validation
	CodeNameRequired     = "name_required"
	CodeEmailRequired    = "email_required"
	CodePasswordRequired = "password_required"
	CodePasswordTooShort = "password_too_short"
	CodeInvalidEmail     = "invalid_email"
	CodeDuplicateEmail   = "duplicate_email"

	// tasks
	CodeTitleRequired   = "title_required"
	CodeInvalidTaskID   = "invalid_task_id"
	CodeTaskNotFound    = "task_not_found"
	CodeValidationError = "validation_error"
)
