package order

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/backend-freight/internal/channel"
)

// ValidationResult is either a success or an ordered list of violation
// messages, never both.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks an order and its boxes against the channel limits. Every
// check runs; a zero limit disables its check.
func Validate(o Order, boxes []Box, ch channel.Channel) ValidationResult {
	l := ch.Limits
	var errs []string

	errs = append(errs, within("piece count", float64(o.Quantity), float64(l.MinPieces), float64(l.MaxPieces), "channel")...)
	errs = append(errs, within("real weight", o.Weight, l.MinTicketRealWeight, l.MaxTicketRealWeight, "channel")...)
	if o.ChargeWeight != nil {
		errs = append(errs, within("charge weight", *o.ChargeWeight, l.MinTicketChargeWeight, l.MaxTicketChargeWeight, "channel")...)
	}
	if len(boxes) > 0 && l.MinBoxAvgWeight > 0 {
		avg := o.Weight / float64(len(boxes))
		if avg < l.MinBoxAvgWeight {
			errs = append(errs, fmt.Sprintf("average box weight %s is below the channel minimum of %s", num(avg), num(l.MinBoxAvgWeight)))
		}
	}
	for i, b := range boxes {
		label := "box " + strconv.Itoa(i+1)
		errs = append(errs, within(label+" real weight", b.Weight, l.MinBoxRealWeight, l.MaxBoxRealWeight, "box")...)
		errs = append(errs, within(label+" declared value", b.DeclaredValue, l.MinDeclareValue, l.MaxDeclareValue, "box")...)
	}

	if len(errs) == 0 {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{Errors: errs}
}

func within(what string, v, lo, hi float64, level string) []string {
	var errs []string
	if lo > 0 && v < lo {
		errs = append(errs, fmt.Sprintf("%s %s is below the %s minimum of %s", what, num(v), level, num(lo)))
	}
	if hi > 0 && v > hi {
		errs = append(errs, fmt.Sprintf("%s %s exceeds the %s maximum of %s", what, num(v), level, num(hi)))
	}
	return errs
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
