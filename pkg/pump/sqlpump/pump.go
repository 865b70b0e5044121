package sqlpump

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/rs/zerolog"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Pump selects its output columns from a base query. Conditions on push-down
// fields become WHERE clauses; the engine applies every other condition.
type Pump struct {
	pump.Base
	db       *sql.DB
	base     string
	pushdown map[string]struct{}
}

// New wraps base, a table name or a SELECT statement, whose result must
// expose every output column of schema under the same name.
func New(db *sql.DB, base string, schema *pump.Schema) (*Pump, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("base query cannot be empty")
	}
	for _, col := range schema.OutputShape() {
		if !identifier.MatchString(col) {
			return nil, fmt.Errorf("column %q is not a plain SQL identifier", col)
		}
	}
	return &Pump{
		Base:     pump.NewBase(schema),
		db:       db,
		base:     base,
		pushdown: map[string]struct{}{},
	}, nil
}

// PushingDown lets conditions on the given declared fields reach the database.
func (p *Pump) PushingDown(fields ...string) *Pump {
	for _, f := range fields {
		if _, declared := p.Schema().Field(f); declared && identifier.MatchString(f) {
			p.pushdown[f] = struct{}{}
		}
	}
	return p
}

func (p *Pump) HonorsFilter(field string, op domain.Op) bool {
	_, ok := p.pushdown[field]
	return ok && op.Valid()
}

// Query renders the statement and bind arguments for a set of pushed-down conditions.
func (p *Pump) Query(conds []domain.Condition) (string, []any, error) {
	var (
		sb      strings.Builder
		clauses []string
		args    []any
	)
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(p.Schema().OutputShape(), ", "))
	sb.WriteString(" FROM (")
	sb.WriteString(p.base)
	sb.WriteString(") AS src")

	for _, c := range conds {
		if !p.HonorsFilter(c.Field, c.Op) {
			return "", nil, fmt.Errorf("%w: condition %v cannot be pushed down", domain.ErrInvalidExpression, c)
		}
		op := string(c.Op)
		if c.Op == domain.OpNe {
			op = "<>"
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", c.Field, op))
		args = append(args, bindValue(p.Schema(), c))
	}
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	return sb.String(), args, nil
}

func (p *Pump) Generate(ctx context.Context, opts pump.Options) ([]domain.Row, error) {
	logger := zerolog.Ctx(ctx)
	query, args, err := p.Query(opts.Conditions())
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("query", query).Int("args", len(args)).Msg("sql pump query")

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sql pump query failed: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close sql pump rows")
		}
	}(rows)

	columns := p.Schema().OutputShape()
	types := make([]domain.DataType, len(columns))
	for i, col := range columns {
		types[i], _ = p.Schema().ColumnType(col)
	}

	out := []domain.Row{}
	for rows.Next() {
		raw := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(domain.Row, len(columns))
		for i, v := range raw {
			if row[i], err = convert(types[i], v); err != nil {
				return nil, fmt.Errorf("column %s: %w", columns[i], err)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// bindValue passes dates and times as text in their declared layout, which
// every supported driver compares correctly against its date and time columns.
func bindValue(schema *pump.Schema, c domain.Condition) any {
	dt, _ := schema.ColumnType(c.Field)
	if dt == domain.TypeDate || dt == domain.TypeTime {
		return dt.Format(c.Value)
	}
	return c.Value
}

// convert maps a driver value onto the representation of dt. Derived
// columns carry no type and pass through, NULL becomes nil.
func convert(dt domain.DataType, v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil || dt == "" {
		return v, nil
	}

	switch x := v.(type) {
	case string:
		return dt.Parse(x)
	case time.Time:
		switch dt {
		case domain.TypeDate:
			return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC), nil
		case domain.TypeTime:
			return time.Date(0, 1, 1, x.Hour(), x.Minute(), x.Second(), x.Nanosecond(), time.UTC), nil
		case domain.TypeString:
			return x.Format(time.RFC3339), nil
		}
	}
	switch dt {
	case domain.TypeString:
		return fmt.Sprint(v), nil
	case domain.TypeInteger:
		if n, ok := domain.ToInt64(v); ok {
			return n, nil
		}
	}
	return dt.Coerce(v)
}
