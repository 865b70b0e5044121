package report

import (
	"fmt"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
)

// layout is a report config bound to the column positions of a pump's output.
type layout struct {
	schema     *pump.Schema
	columns    []string
	projection []int
	groups     []groupLevel
	sort       []sortKey
}

type groupLevel struct {
	field string
	index int
}

type sortKey struct {
	field string
	index int
	desc  bool
}

func newLayout(cfg domain.ReportConfig, schema *pump.Schema) (*layout, error) {
	l := &layout{schema: schema}

	columns := cfg.Fields
	if len(columns) == 0 {
		columns = schema.OutputShape()
	}
	for _, name := range columns {
		i, err := column(schema, name, "select")
		if err != nil {
			return nil, err
		}
		l.columns = append(l.columns, name)
		l.projection = append(l.projection, i)
	}

	for _, name := range cfg.Groups {
		i, err := column(schema, name, "group on")
		if err != nil {
			return nil, err
		}
		l.groups = append(l.groups, groupLevel{field: name, index: i})
	}

	for _, key := range cfg.Sort {
		i, err := column(schema, key.Field, "sort on")
		if err != nil {
			return nil, err
		}
		switch key.Direction {
		case domain.Asc, domain.Desc, "":
		default:
			return nil, fmt.Errorf("%w: unknown sort direction %q", domain.ErrInvalidExpression, key.Direction)
		}
		l.sort = append(l.sort, sortKey{field: key.Field, index: i, desc: key.Direction == domain.Desc})
	}

	for _, f := range cfg.Filters {
		if _, generated := schema.ColumnIndex(f.Field); generated {
			continue
		}
		if _, declared := schema.Field(f.Field); !declared {
			return nil, fmt.Errorf("%w: cannot filter on %q", domain.ErrUnknownField, f.Field)
		}
	}
	return l, nil
}

func column(schema *pump.Schema, name, action string) (int, error) {
	i, ok := schema.ColumnIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: cannot %s %q, pump generates %v", domain.ErrUnknownField, action, name, schema.OutputShape())
	}
	return i, nil
}
