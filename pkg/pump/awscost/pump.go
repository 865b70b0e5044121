package awscost

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/rs/zerolog"
)

const (
	DefaultDays = 30
	costMetric  = "UnblendedCost"
)

// CostClient is the part of *costexplorer.Client the pump needs.
type CostClient interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

var costSchema = pump.NewSchema().
	DeclareField("usage_date", domain.TypeDate).
	DeclareField("service", domain.TypeString).
	DeclareField("cost_cents", domain.TypeInteger).
	MustBuild()

func Schema() *pump.Schema {
	return costSchema
}

// Pump returns one row per day and AWS service with the unblended cost in cents.
// Option "days" sets the look-back window; "service =" conditions are sent to
// Cost Explorer as a dimension filter.
type Pump struct {
	pump.Base
	client CostClient
	now    func() time.Time
}

func New(client CostClient) *Pump {
	return &Pump{
		Base:   pump.NewBase(costSchema),
		client: client,
		now:    time.Now,
	}
}

func (p *Pump) HonorsFilter(field string, op domain.Op) bool {
	return field == "service" && op == domain.OpEq
}

func (p *Pump) Generate(ctx context.Context, opts pump.Options) ([]domain.Row, error) {
	days, err := opts.Int("days", DefaultDays)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("option days must be positive, got %d", days)
	}

	end := p.now().UTC()
	start := end.AddDate(0, 0, -days)
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(start.Format(domain.DateLayout)),
			End:   aws.String(end.Format(domain.DateLayout)),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{costMetric},
		GroupBy: []types.GroupDefinition{
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  aws.String(string(types.DimensionService)),
			},
		},
	}

	var (
		service  string
		filtered bool
	)
	for _, c := range opts.Conditions() {
		if !p.HonorsFilter(c.Field, c.Op) {
			continue
		}
		// Conditions are conjunctive: two different services match nothing,
		// and Cost Explorer never reports a service without a name.
		s, ok := c.Value.(string)
		if !ok || s == "" || (filtered && service != s) {
			return []domain.Row{}, nil
		}
		service, filtered = s, true
	}
	if filtered {
		input.Filter = &types.Expression{
			Dimensions: &types.DimensionValues{
				Key:    types.DimensionService,
				Values: []string{service},
			},
		}
	}

	logger := zerolog.Ctx(ctx)
	var rows []domain.Row
	for {
		out, err := p.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get cost and usage: %w", err)
		}
		page, err := toRows(out)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
		if out.NextPageToken == nil || *out.NextPageToken == "" {
			break
		}
		input.NextPageToken = out.NextPageToken
	}
	logger.Debug().Int("days", days).Int("rows", len(rows)).Msg("cost explorer rows")

	if rows == nil {
		rows = []domain.Row{}
	}
	return rows, nil
}

func toRows(out *costexplorer.GetCostAndUsageOutput) ([]domain.Row, error) {
	var rows []domain.Row
	for _, byTime := range out.ResultsByTime {
		day, err := time.Parse(domain.DateLayout, aws.ToString(byTime.TimePeriod.Start))
		if err != nil {
			return nil, fmt.Errorf("failed to parse start time: %w", err)
		}
		for _, group := range byTime.Groups {
			if len(group.Keys) == 0 {
				continue
			}
			metric, ok := group.Metrics[costMetric]
			if !ok {
				continue
			}
			amount, err := strconv.ParseFloat(aws.ToString(metric.Amount), 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse cost amount: %w", err)
			}
			rows = append(rows, domain.Row{day, group.Keys[0], int64(math.Round(amount * 100))})
		}
	}
	return rows, nil
}

// Definition registers a Cost Explorer pump created through factory.
func Definition(description string, factory func(ctx context.Context) (CostClient, error)) pump.Definition {
	return pump.Definition{
		Description: description,
		Schema:      costSchema,
		Factory: func(ctx context.Context) (pump.DataPump, error) {
			client, err := factory(ctx)
			if err != nil {
				return nil, err
			}
			return New(client), nil
		},
	}
}
