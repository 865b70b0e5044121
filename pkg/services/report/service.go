package report

import (
	"context"
	"fmt"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/rs/zerolog"
)

// ConfigStore loads and saves report configs. Reports are identified by the
// id the store assigns on first save.
type ConfigStore interface {
	Save(ctx context.Context, cfg domain.ReportConfig) (string, error)
	Load(ctx context.Context, id string) (*domain.ReportConfig, error)
	List(ctx context.Context) ([]domain.ReportConfig, error)
	Delete(ctx context.Context, id string) error
}

// Service runs stored report configs.
type Service struct {
	store  ConfigStore
	engine *Engine
}

func NewService(store ConfigStore, engine *Engine) *Service {
	return &Service{store: store, engine: engine}
}

func (s *Service) Engine() *Engine {
	return s.engine
}

func (s *Service) Store() ConfigStore {
	return s.store
}

// Save checks that the config is runnable against its pump's schema before storing it.
func (s *Service) Save(ctx context.Context, cfg domain.ReportConfig) (string, error) {
	def, err := s.engine.registry.Lookup(cfg.Pump)
	if err != nil {
		return "", err
	}
	if _, err := newLayout(cfg, def.Schema); err != nil {
		return "", err
	}
	for _, p := range cfg.Parameters {
		if err := p.Check(); err != nil {
			return "", err
		}
	}
	return s.store.Save(ctx, cfg)
}

// RunStored loads a config and runs it. Raw parameter values, as they arrive
// from flags or JSON, are coerced to their declared types first.
func (s *Service) RunStored(ctx context.Context, id string, raw map[string]any) (*domain.ResultTable, error) {
	cfg, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	params, err := CoerceParams(*cfg, raw)
	if err != nil {
		return nil, &RunError{Stage: StageParametersResolved, Err: err}
	}

	zerolog.Ctx(ctx).Debug().Str("id", id).Int("params", len(params)).Msg("running stored report")
	return s.engine.Run(ctx, *cfg, params)
}

// CoerceParams converts surface input to the declared parameter types.
// Undeclared names pass through unchanged.
func CoerceParams(cfg domain.ReportConfig, raw map[string]any) (map[string]any, error) {
	params := make(map[string]any, len(raw))
	for name, v := range raw {
		p, declared := cfg.Parameter(name)
		if !declared {
			params[name] = v
			continue
		}
		coerced, err := p.DataType.Coerce(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		params[name] = coerced
	}
	return params, nil
}
