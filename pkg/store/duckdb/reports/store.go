package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/data-pump/pkg/adapters"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/models/store"
	"github.com/de-tools/data-pump/pkg/store/duckdb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists report configs in the report_configs table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &Store{
		db:  db,
		now: time.Now,
	}, nil
}

// Save inserts cfg under a fresh id when cfg.ID is empty and replaces the
// stored config otherwise. It returns the id the config is stored under.
func (s *Store) Save(ctx context.Context, cfg domain.ReportConfig) (string, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	rec, err := adapters.MapReportConfigDomainToStore(cfg)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()

	query := `
		INSERT INTO report_configs (id, name, pump, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			pump = excluded.pump,
			body = excluded.body,
			updated_at = excluded.updated_at
	`
	_, err = duckdb.Conn(ctx, s.db).ExecContext(ctx, query,
		rec.ID,
		rec.Name,
		rec.Pump,
		string(rec.Body),
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("save report %s: %w", rec.ID, err)
	}

	zerolog.Ctx(ctx).Debug().Str("id", rec.ID).Str("pump", rec.Pump).Msg("report config saved")
	return rec.ID, nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.ReportConfig, error) {
	query := `
		SELECT id, name, pump, CAST(body AS VARCHAR), created_at, updated_at
		FROM report_configs
		WHERE id = ?
	`
	rec, err := scanRecord(duckdb.Conn(ctx, s.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}

	cfg, err := adapters.MapReportConfigStoreToDomain(*rec)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List returns the stored configs, most recently updated first.
func (s *Store) List(ctx context.Context) ([]domain.ReportConfig, error) {
	query := `
		SELECT id, name, pump, CAST(body AS VARCHAR), created_at, updated_at
		FROM report_configs
		ORDER BY updated_at DESC, id
	`
	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	configs := []domain.ReportConfig{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		cfg, err := adapters.MapReportConfigStoreToDomain(*rec)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return configs, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM report_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrReportNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*store.ReportConfigRecord, error) {
	var (
		rec  store.ReportConfigRecord
		body string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Pump, &body, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Body = []byte(body)
	return &rec, nil
}
