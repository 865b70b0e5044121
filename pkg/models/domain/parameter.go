package domain

import (
	"fmt"
	"slices"
)

// Parameter is a named, typed value supplied by the end user when a report runs.
// A non-empty Domain restricts the legal values to an enumerated selection.
type Parameter struct {
	Name     string
	Label    string
	DataType DataType
	Domain   []any
	Default  any
}

type ParameterOption func(*Parameter)

func WithDomain(values ...any) ParameterOption {
	return func(p *Parameter) {
		p.Domain = append([]any(nil), values...)
	}
}

func WithDefault(v any) ParameterOption {
	return func(p *Parameter) {
		p.Default = v
	}
}

func WithLabel(label string) ParameterOption {
	return func(p *Parameter) {
		p.Label = label
	}
}

func NewParameter(name string, dataType DataType, opts ...ParameterOption) (Parameter, error) {
	p := Parameter{Name: name, DataType: dataType}
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Check(); err != nil {
		return Parameter{}, err
	}
	return p, nil
}

// Check validates the declaration itself: its type, its domain values and its default.
func (p Parameter) Check() error {
	if !p.DataType.Valid() {
		return fmt.Errorf("%w: parameter %q declared as %q", ErrInvalidDataType, p.Name, string(p.DataType))
	}
	for _, v := range p.Domain {
		if err := p.DataType.Check(v); err != nil {
			return fmt.Errorf("parameter %q domain: %w", p.Name, err)
		}
	}
	if p.HasDefault() {
		if err := p.Validate(p.Default); err != nil {
			return fmt.Errorf("parameter %q default: %w", p.Name, err)
		}
	}
	return nil
}

func (p Parameter) HasDomain() bool {
	return len(p.Domain) > 0
}

func (p Parameter) HasDefault() bool {
	return p.Default != nil
}

func (p Parameter) InDomain(v any) bool {
	if !p.HasDomain() {
		return true
	}
	return slices.ContainsFunc(p.Domain, func(d any) bool {
		return EqualValues(d, v)
	})
}

// Validate checks a supplied value against the declared type and domain.
func (p Parameter) Validate(v any) error {
	if err := p.DataType.Check(v); err != nil {
		return fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	if !p.InDomain(v) {
		return fmt.Errorf("%w: parameter %q does not allow %v", ErrValueNotInDomain, p.Name, v)
	}
	return nil
}
