package s3csv

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, *params.Bucket, *params.Key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(args.String(0)))}, args.Error(1)
}

var schema = pump.NewSchema().
	DeclareField("travel_date", domain.TypeDate).
	DeclareField("route", domain.TypeString).
	DeclareField("passengers", domain.TypeInteger).
	MustBuild()

func TestPump_Generate(t *testing.T) {
	ctx := context.Background()
	client := new(mockS3)
	client.On("GetObject", ctx, "ferries", "carries.csv").Return(
		"Passengers, Route, Travel_Date, comment\n"+
			"120, north, 2024-01-01, busy\n"+
			", south, 2024-01-02, \n", nil)

	rows, err := New(client, "ferries", "carries.csv", schema).Generate(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, []domain.Row{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "north", int64(120)},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "south", nil},
	}, rows)
	client.AssertExpectations(t)
}

func TestPump_OptionsOverrideObject(t *testing.T) {
	ctx := context.Background()
	client := new(mockS3)
	client.On("GetObject", ctx, "archive", "2023.csv").Return("travel_date,route,passengers\n", nil)

	rows, err := New(client, "ferries", "carries.csv", schema).
		Generate(ctx, pump.Options{"bucket": "archive", "key": "2023.csv"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	client.AssertExpectations(t)
}

func TestPump_Errors(t *testing.T) {
	ctx := context.Background()
	denied := errors.New("AccessDenied")

	tests := []struct {
		name    string
		body    any
		err     error
		wantErr string
	}{
		{name: "get object", body: nil, err: denied, wantErr: "AccessDenied"},
		{name: "missing column", body: "travel_date,route\n2024-01-01,north\n", wantErr: `no column "passengers"`},
		{name: "bad cell", body: "travel_date,route,passengers\n2024-01-01,north,many\n", wantErr: "line 2 column passengers"},
		{name: "ragged line", body: "travel_date,route,passengers\n2024-01-01,north\n", wantErr: "read csv line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockS3)
			client.On("GetObject", ctx, "b", "k").Return(tt.body, tt.err)

			_, err := New(client, "b", "k", schema).Generate(ctx, nil)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPump_EmptyObject(t *testing.T) {
	ctx := context.Background()
	client := new(mockS3)
	client.On("GetObject", ctx, "b", "k").Return("", nil)

	rows, err := New(client, "b", "k", schema).Generate(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
