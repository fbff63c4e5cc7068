package validation

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// FieldErrors collects validation failures keyed by field name.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return strings.Join(parts, "; ")
}

// ErrOrNil returns the collected errors, or nil when every rule
// passed. Callers must use this rather than returning a FieldErrors
// directly; a typed nil map would compare non-nil as an error.
func (e FieldErrors) ErrOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func Required(errs FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = "is required"
	}
}

func Email(errs FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		return // Required covers emptiness
	}
	if _, err := mail.ParseAddress(value); err != nil {
		errs[field] = "must be a valid email address"
	}
}

// PositiveAmount rejects zero and negative amounts.
func PositiveAmount(errs FieldErrors, field string, amount float64) {
	if amount <= 0 {
		errs[field] = "must be a positive amount"
	}
}

func OneOf(errs FieldErrors, field, value string, allowed ...string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	errs[field] = fmt.Sprintf("must be one of %s", strings.Join(allowed, ", "))
}

// MinLength enforces a minimum rune count, used for passwords.
func MinLength(errs FieldErrors, field, value string, min int) {
	if value == "" {
		return
	}
	if len([]rune(value)) < min {
		errs[field] = fmt.Sprintf("must be at least %d characters", min)
	}
}
