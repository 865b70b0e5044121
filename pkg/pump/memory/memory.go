package memory

import (
	"context"
	"slices"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
)

// Pump serves a fixed set of rows. It is safe for concurrent Generate calls.
type Pump struct {
	pump.Base
	rows    []domain.Row
	honored map[string]struct{}
}

func New(schema *pump.Schema, rows []domain.Row) *Pump {
	copied := make([]domain.Row, len(rows))
	for i, row := range rows {
		copied[i] = slices.Clone(row)
	}
	return &Pump{
		Base: pump.NewBase(schema),
		rows: copied,
	}
}

// Honoring makes the pump apply conditions on the given fields itself.
func (p *Pump) Honoring(fields ...string) *Pump {
	if p.honored == nil {
		p.honored = make(map[string]struct{}, len(fields))
	}
	for _, f := range fields {
		p.honored[f] = struct{}{}
	}
	return p
}

func (p *Pump) HonorsFilter(field string, _ domain.Op) bool {
	_, ok := p.honored[field]
	return ok
}

func (p *Pump) Generate(ctx context.Context, opts pump.Options) ([]domain.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conds := opts.Conditions()
	out := make([]domain.Row, 0, len(p.rows))
	for _, row := range p.rows {
		if p.matches(row, conds) {
			out = append(out, slices.Clone(row))
		}
	}
	return out, nil
}

func (p *Pump) matches(row domain.Row, conds []domain.Condition) bool {
	for _, c := range conds {
		i, ok := p.Schema().ColumnIndex(c.Field)
		if !ok || i >= len(row) || !c.Matches(row[i]) {
			return false
		}
	}
	return true
}

// Definition registers the pump under a registry name.
func Definition(description string, p *Pump) pump.Definition {
	return pump.Definition{
		Description: description,
		Schema:      p.Schema(),
		Factory: func(context.Context) (pump.DataPump, error) {
			return p, nil
		},
	}
}
