// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// StockError reports an insufficient-stock condition with enough detail for
// the caller to see which line fell short and by how much.
type StockError struct {
	Detail    string `json:"detail"`
	LineIndex *int   `json:"line_index,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// NewStock builds a StockError; line < 0 means the failure was not tied to a
// sale line.
func NewStock(detail, productID string, line, requested, available int) *StockError {
	e := &StockError{
		Detail:    detail,
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
	if line >= 0 {
		l := line
		e.LineIndex = &l
	}
	return e
}
