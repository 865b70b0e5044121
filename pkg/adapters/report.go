package adapters

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/de-tools/data-pump/pkg/models/api"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/models/store"
)

func MapExprApiToDomain(e api.Expr) (domain.FilterExpr, error) {
	var operand domain.FilterExpr
	if e.Param != "" {
		if e.Value != nil {
			return nil, fmt.Errorf("%w: both param %q and value %v given", domain.ErrInvalidExpression, e.Param, e.Value)
		}
		operand = domain.Param(e.Param)
	} else {
		v, err := decodeValue(e.Value, e.Type)
		if err != nil {
			return nil, err
		}
		operand = domain.Lit(v)
	}

	if e.Op == "" {
		return operand, nil
	}
	op, err := domain.ParseOp(e.Op)
	if err != nil {
		return nil, err
	}
	return domain.Compare(op, operand), nil
}

func MapExprDomainToApi(e domain.FilterExpr) (api.Expr, error) {
	switch x := e.(type) {
	case domain.Literal:
		v, typ, err := encodeValue(x.Value)
		if err != nil {
			return api.Expr{}, err
		}
		return api.Expr{Value: v, Type: typ}, nil
	case domain.ParamRef:
		return api.Expr{Param: x.Name}, nil
	case domain.Comparison:
		if _, nested := x.Operand.(domain.Comparison); nested || x.Operand == nil {
			return api.Expr{}, fmt.Errorf("%w: comparison operand must be a value or a parameter", domain.ErrInvalidExpression)
		}
		out, err := MapExprDomainToApi(x.Operand)
		if err != nil {
			return api.Expr{}, err
		}
		out.Op = string(x.Op)
		return out, nil
	}
	return api.Expr{}, fmt.Errorf("%w: %v", domain.ErrInvalidExpression, e)
}

func MapParameterApiToDomain(p api.Parameter) (domain.Parameter, error) {
	dt, err := domain.ParseDataType(p.Type)
	if err != nil {
		return domain.Parameter{}, fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	opts := []domain.ParameterOption{domain.WithLabel(p.Label)}
	if len(p.Domain) > 0 {
		values := make([]any, 0, len(p.Domain))
		for _, raw := range p.Domain {
			v, err := dt.Coerce(raw)
			if err != nil {
				return domain.Parameter{}, fmt.Errorf("parameter %q domain: %w", p.Name, err)
			}
			values = append(values, v)
		}
		opts = append(opts, domain.WithDomain(values...))
	}
	if p.Default != nil {
		v, err := dt.Coerce(p.Default)
		if err != nil {
			return domain.Parameter{}, fmt.Errorf("parameter %q default: %w", p.Name, err)
		}
		opts = append(opts, domain.WithDefault(v))
	}
	return domain.NewParameter(p.Name, dt, opts...)
}

func MapParameterDomainToApi(p domain.Parameter) api.Parameter {
	out := api.Parameter{
		Name:  p.Name,
		Label: p.Label,
		Type:  p.DataType.String(),
	}
	for _, v := range p.Domain {
		out.Domain = append(out.Domain, p.DataType.Format(v))
	}
	if p.HasDefault() {
		out.Default = p.DataType.Format(p.Default)
	}
	return out
}

func MapReportConfigApiToDomain(c api.ReportConfig) (domain.ReportConfig, error) {
	b := domain.NewReport(c.Pump).
		Named(c.Name).
		Fields(c.Fields...).
		GroupOn(c.Groups...)

	for _, f := range c.Filters {
		expr, err := MapExprApiToDomain(f.Expr)
		if err != nil {
			return domain.ReportConfig{}, fmt.Errorf("filter on %q: %w", f.Field, err)
		}
		b.Filter(f.Field, expr)
	}
	for _, s := range c.Sort {
		dir, err := domain.ParseSortDirection(s.Direction)
		if err != nil {
			return domain.ReportConfig{}, fmt.Errorf("sort on %q: %w", s.Field, err)
		}
		b.SortBy(s.Field, dir)
	}
	for _, key := range slices.Sorted(maps.Keys(c.Options)) {
		expr, err := MapExprApiToDomain(c.Options[key])
		if err != nil {
			return domain.ReportConfig{}, fmt.Errorf("option %q: %w", key, err)
		}
		b.Option(key, expr)
	}
	for _, p := range c.Parameters {
		param, err := MapParameterApiToDomain(p)
		if err != nil {
			return domain.ReportConfig{}, err
		}
		b.Parameter(param)
	}

	cfg := b.Build()
	cfg.ID = c.ID
	return cfg, nil
}

func MapReportConfigDomainToApi(c domain.ReportConfig) (api.ReportConfig, error) {
	out := api.ReportConfig{
		ID:     c.ID,
		Name:   c.Name,
		Pump:   c.Pump,
		Fields: slices.Clone(c.Fields),
		Groups: slices.Clone(c.Groups),
	}
	for _, f := range c.Filters {
		expr, err := MapExprDomainToApi(f.Expr)
		if err != nil {
			return api.ReportConfig{}, fmt.Errorf("filter on %q: %w", f.Field, err)
		}
		out.Filters = append(out.Filters, api.Filter{Field: f.Field, Expr: expr})
	}
	for _, s := range c.Sort {
		out.Sort = append(out.Sort, api.SortKey{Field: s.Field, Direction: string(s.Direction)})
	}
	if len(c.Options) > 0 {
		out.Options = make(map[string]api.Expr, len(c.Options))
		for key, e := range c.Options {
			expr, err := MapExprDomainToApi(e)
			if err != nil {
				return api.ReportConfig{}, fmt.Errorf("option %q: %w", key, err)
			}
			out.Options[key] = expr
		}
	}
	for _, p := range c.Parameters {
		out.Parameters = append(out.Parameters, MapParameterDomainToApi(p))
	}
	return out, nil
}

func MapReportConfigDomainToStore(c domain.ReportConfig) (store.ReportConfigRecord, error) {
	body, err := MapReportConfigDomainToApi(c)
	if err != nil {
		return store.ReportConfigRecord{}, err
	}
	body.ID = ""
	raw, err := json.Marshal(body)
	if err != nil {
		return store.ReportConfigRecord{}, fmt.Errorf("marshal report body: %w", err)
	}
	return store.ReportConfigRecord{
		ID:   c.ID,
		Name: c.Name,
		Pump: c.Pump,
		Body: raw,
	}, nil
}

func MapReportConfigStoreToDomain(r store.ReportConfigRecord) (domain.ReportConfig, error) {
	var body api.ReportConfig
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return domain.ReportConfig{}, fmt.Errorf("unmarshal report %s body: %w", r.ID, err)
	}
	body.ID = r.ID
	body.Name = r.Name
	body.Pump = r.Pump
	return MapReportConfigApiToDomain(body)
}

func MapReportSummaryDomainToApi(c domain.ReportConfig) api.ReportSummary {
	return api.ReportSummary{
		ID:   c.ID,
		Name: c.Name,
		Pump: c.Pump,
	}
}

func MapResultTableDomainToApi(t *domain.ResultTable) api.ResultTable {
	out := api.ResultTable{
		Columns: slices.Clone(t.Columns),
		Rows:    mapRows(t.Rows),
	}
	if t.Grouped() {
		out.Groups = mapGroups(t.Groups)
	}
	return out
}

func mapGroups(groups []domain.Group) []api.Group {
	out := make([]api.Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, api.Group{
			Field:  g.Field,
			Value:  presentValue(g.Value),
			Groups: mapGroups(g.Groups),
			Rows:   mapRows(g.Rows),
		})
	}
	return out
}

func mapRows(rows []domain.Row) [][]any {
	if rows == nil {
		return nil
	}
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = presentValue(v)
		}
		out = append(out, cells)
	}
	return out
}

// presentValue renders dates and times in their textual layouts and leaves
// everything else for the JSON encoder.
func presentValue(v any) any {
	if dt, ok := domain.TypeOf(v); ok && (dt == domain.TypeDate || dt == domain.TypeTime) {
		return dt.Format(v)
	}
	return v
}

// decodeValue reads a literal. With a type the raw value is coerced to it,
// without one the type is inferred from the raw value.
func decodeValue(raw any, typ string) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: missing value", domain.ErrInvalidExpression)
	}
	if typ != "" {
		dt, err := domain.ParseDataType(typ)
		if err != nil {
			return nil, err
		}
		return dt.Coerce(raw)
	}
	if f, ok := raw.(float64); ok {
		return domain.TypeInteger.Coerce(f)
	}
	if _, ok := domain.TypeOf(raw); !ok {
		return nil, fmt.Errorf("%w: unsupported value %v (%T)", domain.ErrTypeMismatch, raw, raw)
	}
	return raw, nil
}

func encodeValue(v any) (any, string, error) {
	dt, ok := domain.TypeOf(v)
	if !ok {
		return nil, "", fmt.Errorf("%w: unsupported value %v (%T)", domain.ErrTypeMismatch, v, v)
	}
	return dt.Format(v), dt.String(), nil
}
