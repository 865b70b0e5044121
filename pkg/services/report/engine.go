package report

import (
	"context"
	"fmt"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/rs/zerolog"
)

// Stage is a step of a report run. A run moves through the stages in order
// and never revisits one.
type Stage int

const (
	StageConfigured Stage = iota
	StageParametersResolved
	StageGenerated
	StageGrouped
	StageSorted
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageConfigured:
		return "configured"
	case StageParametersResolved:
		return "parameters_resolved"
	case StageGenerated:
		return "generated"
	case StageGrouped:
		return "grouped"
	case StageSorted:
		return "sorted"
	case StageComplete:
		return "complete"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// RunError reports the stage a run was trying to reach when it failed.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("report run failed before %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Engine executes report configs against the pumps of a registry.
// It holds no per-run state, so one Engine serves concurrent runs.
type Engine struct {
	registry pump.Registry
}

func NewEngine(registry pump.Registry) *Engine {
	return &Engine{registry: registry}
}

func (e *Engine) Registry() pump.Registry {
	return e.registry
}

// Run resolves cfg against params, generates rows from the bound pump, then
// filters, groups, sorts and projects them. No partial result is returned on failure.
func (e *Engine) Run(ctx context.Context, cfg domain.ReportConfig, params map[string]any) (*domain.ResultTable, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("pump", cfg.Pump).
		Str("report", cfg.Name).
		Logger()

	def, err := e.registry.Lookup(cfg.Pump)
	if err != nil {
		return nil, &RunError{Stage: StageConfigured, Err: err}
	}
	bound, err := newLayout(cfg, def.Schema)
	if err != nil {
		return nil, &RunError{Stage: StageConfigured, Err: err}
	}

	// Configured -> ParametersResolved
	res, err := Resolve(cfg, def.Schema, params)
	if err != nil {
		return nil, &RunError{Stage: StageParametersResolved, Err: err}
	}
	logger.Debug().Int("conditions", len(res.Conditions)).Msg("parameters resolved")

	// ParametersResolved -> Generated
	rows, err := e.generate(ctx, cfg.Pump, bound, res)
	if err != nil {
		return nil, &RunError{Stage: StageGenerated, Err: err}
	}
	logger.Debug().Int("rows", len(rows)).Msg("rows generated")

	// Generated -> Grouped
	var groups []domain.Group
	if len(bound.groups) > 0 {
		groups = groupRows(rows, bound.groups)
	}

	// Grouped -> Sorted
	if len(bound.sort) > 0 {
		if groups != nil {
			sortGroups(groups, bound.sort)
		} else {
			sortRows(rows, bound.sort)
		}
	}

	// Sorted -> Complete
	table := &domain.ResultTable{Columns: bound.columns}
	if groups != nil {
		table.Groups = projectGroups(groups, bound.projection)
	} else {
		table.Rows = projectRows(rows, bound.projection)
	}

	logger.Info().
		Int("rows", len(rows)).
		Int("groups", len(groups)).
		Msg("report run complete")
	return table, nil
}

func (e *Engine) generate(ctx context.Context, name string, bound *layout, res *Resolution) ([]domain.Row, error) {
	p, err := e.registry.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPumpGenerationFailed, err)
	}

	pushed, local, err := splitConditions(p, bound.schema, res.Conditions)
	if err != nil {
		return nil, err
	}

	opts := make(pump.Options, len(res.Options)+1)
	for k, v := range res.Options {
		opts[k] = v
	}
	if len(pushed) > 0 {
		opts[pump.OptionFilters] = pushed
	}

	rows, err := p.Generate(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPumpGenerationFailed, err)
	}

	width := bound.schema.Width()
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, output shape has %d",
				domain.ErrPumpGenerationFailed, i, len(row), width)
		}
	}

	return applyConditions(rows, bound.schema, local), nil
}

// splitConditions separates the conditions the pump honors from those the
// engine applies to the returned rows. A condition the engine must apply
// has to name a generated column.
func splitConditions(p pump.DataPump, schema *pump.Schema, conds []domain.Condition) (pushed, local []domain.Condition, err error) {
	honorer, _ := p.(pump.FilterHonorer)
	for _, c := range conds {
		if honorer != nil && honorer.HonorsFilter(c.Field, c.Op) {
			pushed = append(pushed, c)
			continue
		}
		if _, ok := schema.ColumnIndex(c.Field); !ok {
			return nil, nil, fmt.Errorf("%w: cannot filter on %q, it is not generated by the pump", domain.ErrUnknownField, c.Field)
		}
		local = append(local, c)
	}
	return pushed, local, nil
}

func applyConditions(rows []domain.Row, schema *pump.Schema, conds []domain.Condition) []domain.Row {
	if len(conds) == 0 {
		return rows
	}
	idx := make([]int, len(conds))
	for i, c := range conds {
		idx[i], _ = schema.ColumnIndex(c.Field)
	}

	out := rows[:0:0]
	for _, row := range rows {
		keep := true
		for i, c := range conds {
			if !c.Matches(row[idx[i]]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}
