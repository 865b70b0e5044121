package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_FlatTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	err := r.Handle("people", &domain.ResultTable{
		Columns: []string{"age", "gender"},
		Rows:    []domain.Row{{int64(25), "M"}, {int64(30), nil}},
	})
	require.NoError(t, err)

	want := "people (2 rows)\n" +
		"\n" +
		"+-----+--------+\n" +
		"| age | gender |\n" +
		"+-----+--------+\n" +
		"| 25  | M      |\n" +
		"| 30  |        |\n" +
		"+-----+--------+\n"
	assert.Equal(t, want, buf.String())
}

func TestReporter_NestedGroups(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	err := r.Handle("", &domain.ResultTable{
		Columns: []string{"date", "n"},
		Groups: []domain.Group{{
			Field: "date",
			Value: day,
			Groups: []domain.Group{{
				Field: "n",
				Value: int64(3),
				Rows:  []domain.Row{{day, int64(3)}},
			}},
		}},
	})
	require.NoError(t, err)

	want := "=== date: 2024-01-02 ===\n" +
		"  === n: 3 ===\n" +
		"+------------+---+\n" +
		"| date       | n |\n" +
		"+------------+---+\n" +
		"| 2024-01-02 | 3 |\n" +
		"+------------+---+\n"
	assert.Equal(t, want, buf.String())
}

func TestReporter_TruncatesWideCells(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.config.MaxColumnWidth = 5

	require.NoError(t, r.Handle("", &domain.ResultTable{
		Columns: []string{"route"},
		Rows:    []domain.Row{{"northbound"}},
	}))
	assert.Contains(t, buf.String(), "| nort~ |")
}

func TestReporter_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	require.NoError(t, r.SetFormat(FormatJSON))
	assert.Error(t, r.SetFormat("xml"))

	require.NoError(t, r.Handle("ignored", &domain.ResultTable{
		Columns: []string{"day"},
		Rows:    []domain.Row{{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}},
	}))
	assert.JSONEq(t, `{"columns":["day"],"rows":[["2024-01-02"]]}`, buf.String())
}
