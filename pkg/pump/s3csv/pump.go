package s3csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/rs/zerolog"
)

// ObjectGetter is the part of *s3.Client the pump needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Pump reads rows from a CSV object with a header row. Header names are
// matched to output columns case-insensitively; extra CSV columns are ignored.
// Options "bucket" and "key" override the configured object.
type Pump struct {
	pump.Base
	client ObjectGetter
	bucket string
	key    string
}

func New(client ObjectGetter, bucket, key string, schema *pump.Schema) *Pump {
	return &Pump{
		Base:   pump.NewBase(schema),
		client: client,
		bucket: bucket,
		key:    key,
	}
}

func (p *Pump) Generate(ctx context.Context, opts pump.Options) ([]domain.Row, error) {
	bucket := opts.String("bucket", p.bucket)
	key := opts.String("key", p.key)
	zerolog.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("reading csv object")

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	return p.read(out.Body)
}

func (p *Pump) read(r io.Reader) ([]domain.Row, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := p.Schema().OutputShape()
	positions := make([]int, len(columns))
	types := make([]domain.DataType, len(columns))
	for i, col := range columns {
		positions[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				positions[i] = j
				break
			}
		}
		if positions[i] < 0 {
			return nil, fmt.Errorf("csv header has no column %q", col)
		}
		types[i], _ = p.Schema().ColumnType(col)
	}

	rows := []domain.Row{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", len(rows)+2, err)
		}

		row := make(domain.Row, len(columns))
		for i, pos := range positions {
			if row[i], err = cell(types[i], record[pos]); err != nil {
				return nil, fmt.Errorf("csv line %d column %s: %w", len(rows)+2, columns[i], err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cell converts a CSV value. Empty cells are NULL; derived columns stay text.
func cell(dt domain.DataType, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	if dt == "" {
		return raw, nil
	}
	return dt.Parse(raw)
}
