package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/de-tools/data-pump/pkg/adapters"
	"github.com/de-tools/data-pump/pkg/models/domain"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

type TableConfig struct {
	MaxColumnWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MaxColumnWidth: 40,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
	format Format
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
		format: FormatTable,
	}
}

func (c *Reporter) SetFormat(f Format) error {
	switch f {
	case FormatTable, FormatJSON:
		c.format = f
		return nil
	}
	return fmt.Errorf("unknown output format %q", f)
}

// view is a ResultTable with every value already rendered as text.
type view struct {
	Title   string
	Depth   int
	Field   string
	Value   string
	Columns []string
	Rows    [][]string
	Groups  []view
	Count   int
}

const reportTemplate = `{{define "table"}}{{separator}}
{{formatRow .Columns}}
{{separator}}
{{range .Rows}}{{formatRow .}}
{{end}}{{separator}}
{{end}}{{define "group"}}{{indent .Depth}}=== {{.Field}}: {{.Value}} ===
{{if .Groups}}{{range .Groups}}{{template "group" .}}{{end}}{{else}}{{template "table" .}}{{end}}{{end}}{{if .Title}}{{.Title}} ({{.Count}} rows)

{{end}}{{if .Groups}}{{range .Groups}}{{template "group" .}}{{end}}{{else}}{{template "table" .}}{{end}}`

// Handle writes one report result.
func (c *Reporter) Handle(title string, table *domain.ResultTable) error {
	if c.format == FormatJSON {
		enc := json.NewEncoder(c.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(adapters.MapResultTableDomainToApi(table))
	}

	root := view{
		Title:   title,
		Columns: table.Columns,
		Rows:    renderRows(table.Rows),
		Groups:  renderGroups(table.Groups, 0, table.Columns),
		Count:   table.Len(),
	}
	widths := c.columnWidths(root)

	funcMap := template.FuncMap{
		"formatRow": func(cells []string) string {
			var sb strings.Builder
			sb.WriteString("|")
			for i, w := range widths {
				cell := ""
				if i < len(cells) {
					cell = truncate(cells[i], w)
				}
				fmt.Fprintf(&sb, " %-*s |", w, cell)
			}
			return sb.String()
		},
		"separator": func() string {
			var sb strings.Builder
			sb.WriteString("+")
			for _, w := range widths {
				sb.WriteString(strings.Repeat("-", w+2))
				sb.WriteString("+")
			}
			return sb.String()
		},
		"indent": func(depth int) string {
			return strings.Repeat("  ", depth)
		},
	}

	t, err := template.New("report").Funcs(funcMap).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, root)
}

func (c *Reporter) columnWidths(root view) []int {
	widths := make([]int, len(root.Columns))
	for i, col := range root.Columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	var visit func(v view)
	visit = func(v view) {
		for _, row := range v.Rows {
			for i, cell := range row {
				if i < len(widths) {
					widths[i] = max(widths[i], utf8.RuneCountInString(cell))
				}
			}
		}
		for _, g := range v.Groups {
			visit(g)
		}
	}
	visit(root)
	for i := range widths {
		widths[i] = min(widths[i], c.config.MaxColumnWidth)
	}
	return widths
}

func renderGroups(groups []domain.Group, depth int, columns []string) []view {
	if groups == nil {
		return nil
	}
	out := make([]view, 0, len(groups))
	for _, g := range groups {
		out = append(out, view{
			Depth:   depth,
			Field:   g.Field,
			Value:   render(g.Value),
			Columns: columns,
			Rows:    renderRows(g.Rows),
			Groups:  renderGroups(g.Groups, depth+1, columns),
		})
	}
	return out
}

func renderRows(rows []domain.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = render(v)
		}
		out = append(out, cells)
	}
	return out
}

func render(v any) string {
	if dt, ok := domain.TypeOf(v); ok {
		return dt.Format(v)
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "~"
}
