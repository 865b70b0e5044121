package pump

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/data-pump/pkg/models/domain"
)

// OptionFilters is the Options key under which the engine passes the
// []domain.Condition a pump declared it honors.
const OptionFilters = "filters"

// Options is the free-form mapping handed to Generate.
type Options map[string]any

// DataPump produces rows shaped by its schema's output columns.
// Generate is a single opaque call per report run; it is never retried.
type DataPump interface {
	Schema() *Schema
	Generate(ctx context.Context, opts Options) ([]domain.Row, error)
}

// FilterHonorer is implemented by pumps that apply some conditions themselves.
// Conditions a pump does not honor are applied by the engine to the returned rows.
type FilterHonorer interface {
	HonorsFilter(field string, op domain.Op) bool
}

// Base carries a schema and is embedded by concrete pumps.
type Base struct {
	schema *Schema
}

func NewBase(schema *Schema) Base {
	return Base{schema: schema}
}

func (b Base) Schema() *Schema {
	return b.schema
}

// Generate fails until the embedding pump provides its own.
func (b Base) Generate(context.Context, Options) ([]domain.Row, error) {
	return nil, domain.ErrNotImplemented
}

// Conditions returns the pushed-down conditions from opts.
func (o Options) Conditions() []domain.Condition {
	conds, _ := o[OptionFilters].([]domain.Condition)
	return conds
}

func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Int reads an integer option, accepting any integer kind.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	n, ok := domain.ToInt64(v)
	if !ok {
		return 0, fmt.Errorf("option %q: %w", key, domain.TypeInteger.Check(v))
	}
	return int(n), nil
}

// Time reads a date or time option.
func (o Options) Time(key string, def time.Time) (time.Time, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("option %q: %w", key, domain.TypeDate.Check(v))
	}
	return t, nil
}
