package channel

import (
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when no active channel matches the lookup.
	ErrNotFound = errors.New("channel not found")
	// ErrInvalidConfig is returned when a stored channel fails schema validation.
	ErrInvalidConfig = errors.New("channel configuration invalid")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the channel against its schema so malformed records are
// rejected at load time instead of during a calculation.
func (c Channel) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, c.Code, err)
	}
	if c.MaxBoxChargeWeight > 0 && c.MinBoxChargeWeight > c.MaxBoxChargeWeight {
		return fmt.Errorf("%w: %s: minBoxChargeWeight exceeds maxBoxChargeWeight", ErrInvalidConfig, c.Code)
	}
	l := c.Limits
	pairs := []struct {
		name     string
		min, max float64
	}{
		{"pieces", float64(l.MinPieces), float64(l.MaxPieces)},
		{"ticket real weight", l.MinTicketRealWeight, l.MaxTicketRealWeight},
		{"ticket charge weight", l.MinTicketChargeWeight, l.MaxTicketChargeWeight},
		{"box real weight", l.MinBoxRealWeight, l.MaxBoxRealWeight},
		{"declared value", l.MinDeclareValue, l.MaxDeclareValue},
	}
	for _, p := range pairs {
		if p.min > 0 && p.max > 0 && p.min > p.max {
			return fmt.Errorf("%w: %s: %s minimum exceeds maximum", ErrInvalidConfig, c.Code, p.name)
		}
	}
	return nil
}
