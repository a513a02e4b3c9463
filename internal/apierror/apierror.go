// Package apierror defines the error envelopes every HTTP handler returns.
// Funneling all 4xx/5xx bodies through here keeps the wire format uniform and
// keeps internals (SQL errors, stack traces) out of client responses.
package apierror

// APIError carries a single human-readable detail message.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError adds per-field messages for 422 responses.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
