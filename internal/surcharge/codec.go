package surcharge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
)

var (
	// ErrUnknownKind is returned when a record names a kind this package does not implement.
	ErrUnknownKind = errors.New("surcharge: unknown rule kind")
	// ErrInvalidParams is returned when a record's parameters do not match its kind.
	ErrInvalidParams = errors.New("surcharge: invalid rule parameters")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Record is the stored and wire shape of a rule: the kind travels as "type"
// next to an opaque parameter document.
type Record struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Kind   Kind            `json:"type"`
	Scope  Scope           `json:"scope,omitempty"`
	Params json.RawMessage `json:"params"`
}

// Decode turns a record into a typed rule, rejecting unknown kinds and
// parameter documents that do not fit the kind.
func Decode(rec Record) (Rule, error) {
	var params Params
	var err error
	switch rec.Kind {
	case KindFixed:
		params, err = decodeParams[Fixed](rec.Params)
	case KindPercentage:
		params, err = decodeParams[Percentage](rec.Params)
	case KindWeightBracket:
		params, err = decodeParams[WeightBracket](rec.Params)
	case KindLongestSideBracket:
		params, err = decodeParams[LongestSideBracket](rec.Params)
	case KindSecondLongestSideBracket:
		params, err = decodeParams[SecondLongestSideBracket](rec.Params)
	case KindDimensionSumBracket:
		params, err = decodeParams[DimensionSumBracket](rec.Params)
	case KindCustom:
		params, err = decodeParams[Custom](rec.Params)
	default:
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %s (%s): %v", ErrInvalidParams, rec.ID, rec.Kind, err)
	}
	switch rec.Scope {
	case "", ScopeOrder, ScopeBox:
	default:
		return Rule{}, fmt.Errorf("%w: rule %s: unknown scope %q", ErrInvalidParams, rec.ID, rec.Scope)
	}
	return Rule{ID: rec.ID, Name: rec.Name, Scope: rec.Scope, Params: params}, nil
}

func decodeParams[T Params](raw json.RawMessage) (T, error) {
	var p T
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, err
	}
	if err := validate.Struct(p); err != nil {
		return p, err
	}
	return p, nil
}

// Record converts the rule back to its stored shape.
func (r Rule) Record() (Record, error) {
	if r.Params == nil {
		return Record{}, fmt.Errorf("%w: rule %s has no parameters", ErrInvalidParams, r.ID)
	}
	params, err := json.Marshal(r.Params)
	if err != nil {
		return Record{}, err
	}
	return Record{ID: r.ID, Name: r.Name, Kind: r.Kind(), Scope: r.Scope, Params: params}, nil
}

// MarshalJSON encodes the rule as a Record.
func (r Rule) MarshalJSON() ([]byte, error) {
	rec, err := r.Record()
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes a Record and validates it.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	rule, err := Decode(rec)
	if err != nil {
		return err
	}
	*r = rule
	return nil
}
