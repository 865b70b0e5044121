package awscost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCostClient struct {
	mock.Mock
}

func (m *mockCostClient) GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*costexplorer.GetCostAndUsageOutput), args.Error(1)
}

func group(service, amount string) types.Group {
	return types.Group{
		Keys: []string{service},
		Metrics: map[string]types.MetricValue{
			"UnblendedCost": {Amount: aws.String(amount), Unit: aws.String("USD")},
		},
	}
}

func byTime(day string, groups ...types.Group) types.ResultByTime {
	return types.ResultByTime{
		TimePeriod: &types.DateInterval{Start: aws.String(day), End: aws.String(day)},
		Groups:     groups,
	}
}

func fixedPump(client CostClient) *Pump {
	p := New(client)
	p.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestPump_Generate(t *testing.T) {
	ctx := context.Background()
	client := new(mockCostClient)

	firstPage := mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return in.NextPageToken == nil &&
			aws.ToString(in.TimePeriod.Start) == "2024-03-08" &&
			aws.ToString(in.TimePeriod.End) == "2024-03-10" &&
			in.Granularity == types.GranularityDaily &&
			in.Filter == nil
	})
	secondPage := mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return aws.ToString(in.NextPageToken) == "page-2"
	})

	client.On("GetCostAndUsage", ctx, firstPage).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			byTime("2024-03-08", group("Amazon Simple Storage Service", "1.234"), group("AWS Lambda", "0.005")),
		},
		NextPageToken: aws.String("page-2"),
	}, nil).Once()
	client.On("GetCostAndUsage", ctx, secondPage).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			byTime("2024-03-09", group("AWS Lambda", "2")),
		},
	}, nil).Once()

	rows, err := fixedPump(client).Generate(ctx, pump.Options{"days": int64(2)})
	require.NoError(t, err)

	d8 := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	d9 := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []domain.Row{
		{d8, "Amazon Simple Storage Service", int64(123)},
		{d8, "AWS Lambda", int64(1)},
		{d9, "AWS Lambda", int64(200)},
	}, rows)
	client.AssertExpectations(t)
}

func TestPump_PushesServiceFilter(t *testing.T) {
	ctx := context.Background()
	client := new(mockCostClient)
	p := fixedPump(client)

	assert.True(t, p.HonorsFilter("service", domain.OpEq))
	assert.False(t, p.HonorsFilter("service", domain.OpNe))
	assert.False(t, p.HonorsFilter("cost_cents", domain.OpEq))

	filtered := mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return in.Filter != nil &&
			in.Filter.Dimensions.Key == types.DimensionService &&
			assert.ObjectsAreEqual([]string{"AWS Lambda"}, in.Filter.Dimensions.Values)
	})
	client.On("GetCostAndUsage", ctx, filtered).Return(&costexplorer.GetCostAndUsageOutput{}, nil).Once()

	rows, err := p.Generate(ctx, pump.Options{
		pump.OptionFilters: []domain.Condition{{Field: "service", Op: domain.OpEq, Value: "AWS Lambda"}},
	})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	rows, err = p.Generate(ctx, pump.Options{
		pump.OptionFilters: []domain.Condition{
			{Field: "service", Op: domain.OpEq, Value: "AWS Lambda"},
			{Field: "service", Op: domain.OpEq, Value: "Amazon EC2"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
	client.AssertExpectations(t)
}

func TestPump_UnmatchableServiceFilter(t *testing.T) {
	ctx := context.Background()
	client := new(mockCostClient)
	p := fixedPump(client)

	tests := []struct {
		name  string
		conds []domain.Condition
	}{
		{"empty service", []domain.Condition{
			{Field: "service", Op: domain.OpEq, Value: ""},
		}},
		{"empty then named", []domain.Condition{
			{Field: "service", Op: domain.OpEq, Value: ""},
			{Field: "service", Op: domain.OpEq, Value: "Amazon EC2"},
		}},
		{"named then empty", []domain.Condition{
			{Field: "service", Op: domain.OpEq, Value: "Amazon EC2"},
			{Field: "service", Op: domain.OpEq, Value: ""},
		}},
		{"not a string", []domain.Condition{
			{Field: "service", Op: domain.OpEq, Value: int64(3)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := p.Generate(ctx, pump.Options{pump.OptionFilters: tt.conds})
			require.NoError(t, err)
			assert.NotNil(t, rows)
			assert.Empty(t, rows)
		})
	}
	client.AssertNotCalled(t, "GetCostAndUsage", mock.Anything, mock.Anything)
}

func TestPump_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := fixedPump(new(mockCostClient)).Generate(ctx, pump.Options{"days": int64(0)})
	assert.ErrorContains(t, err, "days must be positive")

	_, err = fixedPump(new(mockCostClient)).Generate(ctx, pump.Options{"days": "week"})
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)

	throttled := errors.New("ThrottlingException")
	client := new(mockCostClient)
	client.On("GetCostAndUsage", ctx, mock.Anything).Return(nil, throttled)
	_, err = fixedPump(client).Generate(ctx, nil)
	assert.ErrorIs(t, err, throttled)
}

func TestDefinition(t *testing.T) {
	def := Definition("cloud cost", func(context.Context) (CostClient, error) {
		return new(mockCostClient), nil
	})
	assert.Equal(t, []string{"usage_date", "service", "cost_cents"}, def.Schema.OutputShape())

	p, err := def.Factory(context.Background())
	require.NoError(t, err)
	_, ok := p.(pump.FilterHonorer)
	assert.True(t, ok)
}
