package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := ParseParams([]string{"since=2024-01-01", " region = north", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"since":  "2024-01-01",
		"region": " north",
		"empty":  "",
	}, params)

	_, err = ParseParams([]string{"=x"})
	assert.Error(t, err)
}

func TestDemoReport(t *testing.T) {
	cfg, err := DemoReport(3, 9)
	require.NoError(t, err)
	assert.Equal(t, "ferry_carries", cfg.Pump)

	p, ok := cfg.Parameter("min_passengers")
	require.True(t, ok)
	assert.Equal(t, int64(0), p.Default)
}
