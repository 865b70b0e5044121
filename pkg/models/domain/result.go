package domain

// ResultTable is the output of one report run. Rows is populated when the report
// has no grouping; otherwise Groups holds the nested partition.
type ResultTable struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows,omitempty"`
	Groups  []Group  `json:"groups,omitempty"`
}

// Group is one partition level. Leaf groups carry rows, inner groups carry sub-groups.
type Group struct {
	Field  string  `json:"field"`
	Value  any     `json:"value"`
	Groups []Group `json:"groups,omitempty"`
	Rows   []Row   `json:"rows,omitempty"`
}

func (t ResultTable) Grouped() bool {
	return t.Groups != nil
}

// Flatten returns every row in presentation order.
func (t ResultTable) Flatten() []Row {
	if !t.Grouped() {
		return t.Rows
	}
	var out []Row
	for _, g := range t.Groups {
		out = g.appendRows(out)
	}
	return out
}

// Len counts the rows in the table.
func (t ResultTable) Len() int {
	return len(t.Flatten())
}

func (g Group) appendRows(out []Row) []Row {
	if len(g.Groups) == 0 {
		return append(out, g.Rows...)
	}
	for _, sub := range g.Groups {
		out = sub.appendRows(out)
	}
	return out
}
