package memory

import (
	"context"
	"testing"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schema = pump.NewSchema().
	DeclareField("age", domain.TypeInteger).
	DeclareField("gender", domain.TypeString).
	DeclareField("count", domain.TypeInteger).
	MustBuild()

func fixture() *Pump {
	return New(schema, []domain.Row{
		{25, "M", 3},
		{25, "F", 2},
		{30, "M", 1},
	})
}

func TestPump_Generate(t *testing.T) {
	p := fixture()

	rows, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{{25, "M", 3}, {25, "F", 2}, {30, "M", 1}}, rows)

	rows[0][0] = 99
	again, err := p.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 25, again[0][0], "callers cannot mutate the pump's rows")
}

func TestPump_HonoredFilters(t *testing.T) {
	p := fixture().Honoring("gender")
	assert.True(t, p.HonorsFilter("gender", domain.OpEq))
	assert.False(t, p.HonorsFilter("age", domain.OpEq))

	rows, err := p.Generate(context.Background(), pump.Options{
		pump.OptionFilters: []domain.Condition{{Field: "gender", Op: domain.OpEq, Value: "M"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{{25, "M", 3}, {30, "M", 1}}, rows)
}

func TestPump_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fixture().Generate(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefinition(t *testing.T) {
	p := fixture()
	def := Definition("ages", p)

	created, err := def.Factory(context.Background())
	require.NoError(t, err)
	assert.Same(t, p, created)
	assert.Equal(t, "ages", def.Description)
}
