package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

var (
	// ErrValidation signals the request violated a domain invariant.
	ErrValidation = errors.New("validation failed")
	// ErrConflict signals a uniqueness clash with existing state.
	ErrConflict = errors.New("conflict")
	// ErrBusinessRule signals a well-formed request the current state cannot satisfy.
	ErrBusinessRule = errors.New("business rule violated")
	// ErrNotFound signals a missing resource or one not owned by the caller.
	ErrNotFound = errors.New("resource not found")
	// ErrExternalService signals a failure of the payment provider.
	ErrExternalService = errors.New("external service failure")
	// ErrRefundFailed marks a compensation whose refund did not go through; it needs manual follow-up.
	ErrRefundFailed = errors.New("refund failed")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrBusinessRule) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExternalService) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidProduct),
		errors.Is(err, domain.ErrInvalidShipping),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrMissingOwner),
		errors.Is(err, domain.ErrMissingSession):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrOutOfStock):
		return fmt.Errorf("%w: %w", ErrBusinessRule, err)
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, ports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, ports.ErrSessionTaken):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// ShouldCompensate reports whether a finalization failure after payment must be refunded.
func ShouldCompensate(err error) bool {
	return errors.Is(err, domain.ErrOutOfStock) || errors.Is(err, ErrValidation)
}
