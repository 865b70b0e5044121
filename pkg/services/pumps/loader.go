package pumps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/de-tools/data-pump/pkg/pump/awscost"
	"github.com/de-tools/data-pump/pkg/pump/s3csv"
	"github.com/de-tools/data-pump/pkg/pump/sqlpump"
	"github.com/de-tools/data-pump/pkg/services/config"
	"github.com/rs/zerolog"
)

// Loader registers the pumps listed in the application config. Connections
// are opened on first use and shared by every run of the same pump.
type Loader struct {
	Profiles config.Registry
	OpenSQL  func(ctx context.Context, profile *config.Profile) (*sql.DB, error)
	LoadAWS  func(ctx context.Context, profile, region string) (*awssdk.Config, error)

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func NewLoader(profiles config.Registry) *Loader {
	return &Loader{
		Profiles: profiles,
		OpenSQL:  sqlpump.Open,
		LoadAWS:  config.LoadAWS,
		dbs:      map[string]*sql.DB{},
	}
}

func (l *Loader) Register(ctx context.Context, r pump.Registry, pumps []config.PumpConfig) error {
	logger := zerolog.Ctx(ctx)
	for _, pc := range pumps {
		def, err := l.definition(pc)
		if err != nil {
			return fmt.Errorf("pump %q: %w", pc.Name, err)
		}
		if err := r.Register(pc.Name, def); err != nil {
			return err
		}
		logger.Info().Str("pump", pc.Name).Str("kind", pc.Kind).Msg("registered configured pump")
	}
	return nil
}

// Close releases every connection opened by SQL pumps.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for name, db := range l.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	clear(l.dbs)
	return errors.Join(errs...)
}

func (l *Loader) definition(pc config.PumpConfig) (pump.Definition, error) {
	if pc.Kind == "awscost" {
		return awscost.Definition(pc.Description, func(ctx context.Context) (awscost.CostClient, error) {
			cfg, err := l.LoadAWS(ctx, pc.Profile, pc.Region)
			if err != nil {
				return nil, err
			}
			return costexplorer.NewFromConfig(*cfg), nil
		}), nil
	}

	schema, err := buildSchema(pc)
	if err != nil {
		return pump.Definition{}, err
	}

	var factory pump.Factory
	switch pc.Kind {
	case "sql":
		factory = func(ctx context.Context) (pump.DataPump, error) {
			db, err := l.db(ctx, pc.Profile)
			if err != nil {
				return nil, err
			}
			p, err := sqlpump.New(db, pc.Query, schema)
			if err != nil {
				return nil, err
			}
			return p.PushingDown(pc.PushDown...), nil
		}
	case "s3csv":
		factory = func(ctx context.Context) (pump.DataPump, error) {
			cfg, err := l.LoadAWS(ctx, pc.Profile, pc.Region)
			if err != nil {
				return nil, err
			}
			return s3csv.New(s3.NewFromConfig(*cfg), pc.Bucket, pc.Key, schema), nil
		}
	default:
		return pump.Definition{}, fmt.Errorf("unknown kind %q", pc.Kind)
	}

	return pump.Definition{
		Description: pc.Description,
		Schema:      schema,
		Factory:     factory,
	}, nil
}

func (l *Loader) db(ctx context.Context, profile string) (*sql.DB, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if db, ok := l.dbs[profile]; ok {
		return db, nil
	}
	p, err := l.Profiles.GetProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	db, err := l.OpenSQL(ctx, p)
	if err != nil {
		return nil, err
	}
	l.dbs[profile] = db
	return db, nil
}

func buildSchema(pc config.PumpConfig) (*pump.Schema, error) {
	b := pump.NewSchema()
	for _, f := range pc.Fields {
		dt, err := domain.ParseDataType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		b.DeclareField(f.Name, dt)
	}
	if len(pc.OutputShape) > 0 {
		b.DeclareOutputShape(pc.OutputShape...)
	}
	return b.Build()
}
