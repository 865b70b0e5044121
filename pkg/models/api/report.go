package api

// Expr is the wire form of a filter or option value. With Op empty it is a
// plain value (Value) or a parameter reference (Param); with Op set it is a
// comparison against that value or parameter. Type names the data type of
// Value and is required for dates and times.
type Expr struct {
	Op    string `json:"op,omitempty" mapstructure:"op"`
	Param string `json:"param,omitempty" mapstructure:"param"`
	Value any    `json:"value,omitempty" mapstructure:"value"`
	Type  string `json:"type,omitempty" mapstructure:"type"`
}

type Filter struct {
	Field string `json:"field" mapstructure:"field"`
	Expr  `mapstructure:",squash"`
}

type SortKey struct {
	Field     string `json:"field" mapstructure:"field"`
	Direction string `json:"direction,omitempty" mapstructure:"direction"`
}

type Parameter struct {
	Name    string `json:"name" mapstructure:"name"`
	Label   string `json:"label,omitempty" mapstructure:"label"`
	Type    string `json:"type" mapstructure:"type"`
	Domain  []any  `json:"domain,omitempty" mapstructure:"domain"`
	Default any    `json:"default,omitempty" mapstructure:"default"`
}

type ReportConfig struct {
	ID         string          `json:"id,omitempty" mapstructure:"id"`
	Name       string          `json:"name" mapstructure:"name"`
	Pump       string          `json:"pump" mapstructure:"pump"`
	Fields     []string        `json:"fields,omitempty" mapstructure:"fields"`
	Filters    []Filter        `json:"filters,omitempty" mapstructure:"filters"`
	Groups     []string        `json:"groups,omitempty" mapstructure:"groups"`
	Sort       []SortKey       `json:"sort,omitempty" mapstructure:"sort"`
	Options    map[string]Expr `json:"options,omitempty" mapstructure:"options"`
	Parameters []Parameter     `json:"parameters,omitempty" mapstructure:"parameters"`
}

type ReportSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Pump string `json:"pump"`
}

type RunRequest struct {
	Parameters map[string]any `json:"parameters"`
}

type SaveResponse struct {
	ID string `json:"id"`
}

type ResultTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows,omitempty"`
	Groups  []Group  `json:"groups,omitempty"`
}

type Group struct {
	Field  string  `json:"field"`
	Value  any     `json:"value"`
	Groups []Group `json:"groups,omitempty"`
	Rows   [][]any `json:"rows,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
