package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/repo"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound maps a missing row onto ErrNotFound and passes other errors through.
func notFound(err error, what string) error {
	if repo.IsNotFound(err) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// FieldErrors extracts per-field messages from a validation failure, if any.
func FieldErrors(err error) forms.FieldErrors {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
