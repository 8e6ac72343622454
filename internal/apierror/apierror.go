// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// Machine-readable codes carried in the envelope.
const (
	CodeBadRequest           = "bad_request"
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeValidation           = "validation_failed"
	CodeNotFound             = "not_found"
	CodeStateConflict        = "state_conflict"
	CodeReceiptLocked        = "receipt_locked"
	CodeDuplicateSKU         = "duplicate_sku"
	CodeConfirmationRequired = "confirmation_required"
	CodeVersionConflict      = "version_conflict"
	CodeDuplicateCode        = "duplicate_code"
	CodeBarcodeCollision     = "barcode_collision"
	CodeBusy                 = "busy"
	CodeUnavailable          = "dependency_unavailable"
	CodeRateLimited          = "rate_limited"
	CodeInternal             = "internal_error"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Data carries context the client needs to recover (the existing line on a
// duplicate SKU, the summary on a confirmation request).
type APIError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Data   any               `json:"data,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func WithCode(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// NewValidation wraps multiple field errors.
func NewValidation(fields map[string]string) *APIError {
	return &APIError{Detail: "validation failed", Code: CodeValidation, Fields: fields}
}
