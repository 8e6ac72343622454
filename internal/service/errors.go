package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"jourdash/internal/reconcile"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrReceiptLocked is wrapped by any StateConflictError raised on a reconciled receipt.
	ErrReceiptLocked = errors.New("receipt is reconciled and locked")
	// ErrVersionConflict means the receipt changed since the caller read it.
	ErrVersionConflict = errors.New("receipt was modified concurrently")
	// ErrBarcodeCollision is fatal for the request; nothing is committed.
	ErrBarcodeCollision = errors.New("barcode allocation collided with an existing unit")
	ErrBusy             = errors.New("receipt is being modified by another request")
)

// ValidationError carries per-field tags for the 422 envelope. Never retried.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, tag string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: tag}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// StateConflictError is raised when an operation is not allowed in the
// current status (or unit stage). It is never silently ignored.
type StateConflictError struct {
	Entity string // "receipt" | "unit"
	Field  string
	Status string
	Reason string
}

func (e *StateConflictError) Error() string {
	msg := fmt.Sprintf("%s %s cannot be changed while %s", e.Entity, e.Field, e.Status)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *StateConflictError) Unwrap() error {
	if e.Entity == "receipt" && e.Status == "reconciled" {
		return ErrReceiptLocked
	}
	return nil
}

// DuplicateSKUError asks the caller to resend with confirm_merge=true.
type DuplicateSKUError struct {
	LineID      string
	SKUCode     string
	ExpectedQty int
}

func (e *DuplicateSKUError) Error() string {
	return fmt.Sprintf("sku %s already exists on this receipt (expected %d); confirm to add to it", e.SKUCode, e.ExpectedQty)
}

// ConfirmationRequiredError blocks reconciliation of a receipt with variance
// until the caller confirms.
type ConfirmationRequiredError struct {
	Summary reconcile.Summary
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("total variance is %d; reconcile again with confirm=true", e.Summary.TotalVariance)
}

// DuplicateCodeError is raised when a registry code is already taken.
type DuplicateCodeError struct {
	Registry string
	Code     string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("%s code %s is already registered", e.Registry, e.Code)
}

// IntegrationError wraps a failed lookup in a collaborating directory.
type IntegrationError struct {
	Dependency string
	Err        error
}

func (e *IntegrationError) Error() string {
	return e.Dependency + " is unavailable: " + e.Err.Error()
}

func (e *IntegrationError) Unwrap() error { return e.Err }
