package report

import (
	"fmt"
	"maps"
	"slices"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
)

// Resolution is a report config's filters and options with every parameter
// reference replaced by a concrete value.
type Resolution struct {
	// Conditions are in the config's filter order.
	Conditions []domain.Condition
	Options    pump.Options
}

type resolver struct {
	cfg    domain.ReportConfig
	params map[string]any
}

// Resolve validates the supplied parameters against their declarations and
// resolves filters and options. Every declared parameter without a default
// must be supplied, whether or not a filter references it. It stops at the first error.
func Resolve(cfg domain.ReportConfig, schema *pump.Schema, params map[string]any) (*Resolution, error) {
	r := resolver{cfg: cfg, params: params}
	if err := r.validateParameters(); err != nil {
		return nil, err
	}

	res := &Resolution{Options: make(pump.Options, len(cfg.Options))}
	for _, f := range cfg.Filters {
		cond, err := r.condition(f, schema)
		if err != nil {
			return nil, err
		}
		res.Conditions = append(res.Conditions, cond)
	}

	for _, key := range slices.Sorted(maps.Keys(cfg.Options)) {
		expr, err := r.expr(cfg.Options[key])
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", key, err)
		}
		if lit, ok := expr.(domain.Literal); ok {
			res.Options[key] = lit.Value
		} else {
			res.Options[key] = expr
		}
	}
	return res, nil
}

// ResolveExpr resolves a single expression against the config's declared
// parameters and the runtime values. Literals pass through, parameter
// references become literals and comparisons keep their operator.
func ResolveExpr(cfg domain.ReportConfig, expr domain.FilterExpr, params map[string]any) (domain.FilterExpr, error) {
	r := resolver{cfg: cfg, params: params}
	return r.expr(expr)
}

func (r resolver) validateParameters() error {
	for _, p := range r.cfg.Parameters {
		if err := p.Check(); err != nil {
			return err
		}
		v, ok := r.params[p.Name]
		switch {
		case ok:
			if err := p.Validate(v); err != nil {
				return err
			}
		case !p.HasDefault():
			return fmt.Errorf("%w: %q", domain.ErrMissingParameter, p.Name)
		}
	}
	return nil
}

func (r resolver) condition(f domain.Filter, schema *pump.Schema) (domain.Condition, error) {
	expr, err := r.expr(f.Expr)
	if err != nil {
		return domain.Condition{}, fmt.Errorf("filter on %q: %w", f.Field, err)
	}
	cond, err := domain.ConditionOf(f.Field, expr)
	if err != nil {
		return domain.Condition{}, err
	}
	if dt, typed := schema.ColumnType(f.Field); typed {
		if err := dt.Check(cond.Value); err != nil {
			return domain.Condition{}, fmt.Errorf("filter on %q: %w", f.Field, err)
		}
	}
	return cond, nil
}

func (r resolver) expr(expr domain.FilterExpr) (domain.FilterExpr, error) {
	switch e := expr.(type) {
	case domain.Literal:
		return e, nil
	case domain.ParamRef:
		v, err := r.lookup(e.Name)
		if err != nil {
			return nil, err
		}
		return domain.Lit(v), nil
	case domain.Comparison:
		if !e.Op.Valid() {
			return nil, fmt.Errorf("%w: unknown operator %q", domain.ErrInvalidExpression, e.Op)
		}
		if _, nested := e.Operand.(domain.Comparison); nested || e.Operand == nil {
			return nil, fmt.Errorf("%w: comparison operand must be a literal or a parameter", domain.ErrInvalidExpression)
		}
		operand, err := r.expr(e.Operand)
		if err != nil {
			return nil, err
		}
		return domain.Compare(e.Op, operand), nil
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrInvalidExpression, expr)
}

func (r resolver) lookup(name string) (any, error) {
	if v, ok := r.params[name]; ok {
		return v, nil
	}
	if p, declared := r.cfg.Parameter(name); declared && p.HasDefault() {
		return p.Default, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrMissingParameter, name)
}
