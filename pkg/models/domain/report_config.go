package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, nil
	case "":
		return Asc, nil
	}
	return "", fmt.Errorf("%w: unknown sort direction %q", ErrInvalidExpression, s)
}

type SortKey struct {
	Field     string
	Direction SortDirection
}

// GroupSpec lists the grouping fields, outermost level first.
type GroupSpec []string

// SortSpec lists sort keys, primary key first.
type SortSpec []SortKey

// ReportConfig is the stored description of a report. The engine only reads it.
type ReportConfig struct {
	ID         string
	Name       string
	Pump       string
	Fields     []string
	Filters    []Filter
	Groups     GroupSpec
	Sort       SortSpec
	Options    map[string]FilterExpr
	Parameters []Parameter
}

func (c ReportConfig) Parameter(name string) (Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Clone returns a deep copy of the configuration's slices and maps.
func (c ReportConfig) Clone() ReportConfig {
	out := c
	out.Fields = slices.Clone(c.Fields)
	out.Filters = slices.Clone(c.Filters)
	out.Groups = slices.Clone(c.Groups)
	out.Sort = slices.Clone(c.Sort)
	out.Options = maps.Clone(c.Options)
	out.Parameters = make([]Parameter, len(c.Parameters))
	for i, p := range c.Parameters {
		p.Domain = slices.Clone(p.Domain)
		out.Parameters[i] = p
	}
	if c.Parameters == nil {
		out.Parameters = nil
	}
	return out
}

// ReportBuilder assembles a ReportConfig through the recognized configuration keys:
// fields, filters, groups, sort, options and parameters.
type ReportBuilder struct {
	cfg ReportConfig
}

func NewReport(pump string) *ReportBuilder {
	return &ReportBuilder{cfg: ReportConfig{Pump: pump}}
}

func (b *ReportBuilder) Named(name string) *ReportBuilder {
	b.cfg.Name = name
	return b
}

func (b *ReportBuilder) Fields(names ...string) *ReportBuilder {
	b.cfg.Fields = append(b.cfg.Fields, names...)
	return b
}

func (b *ReportBuilder) Filter(field string, expr FilterExpr) *ReportBuilder {
	b.cfg.Filters = append(b.cfg.Filters, Filter{Field: field, Expr: expr})
	return b
}

func (b *ReportBuilder) GroupOn(fields ...string) *ReportBuilder {
	b.cfg.Groups = append(b.cfg.Groups, fields...)
	return b
}

func (b *ReportBuilder) SortBy(field string, dir SortDirection) *ReportBuilder {
	b.cfg.Sort = append(b.cfg.Sort, SortKey{Field: field, Direction: dir})
	return b
}

func (b *ReportBuilder) Option(key string, expr FilterExpr) *ReportBuilder {
	if b.cfg.Options == nil {
		b.cfg.Options = make(map[string]FilterExpr)
	}
	b.cfg.Options[key] = expr
	return b
}

func (b *ReportBuilder) Parameter(p Parameter) *ReportBuilder {
	b.cfg.Parameters = append(b.cfg.Parameters, p)
	return b
}

// Build returns an independent copy, so the builder can keep being used.
func (b *ReportBuilder) Build() ReportConfig {
	return b.cfg.Clone()
}
