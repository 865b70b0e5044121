package report

import (
	"slices"

	"github.com/de-tools/data-pump/pkg/models/domain"
)

// groupRows partitions rows level by level. Groups appear in the order their
// key was first seen and rows keep their emission order inside each group.
func groupRows(rows []domain.Row, levels []groupLevel) []domain.Group {
	level := levels[0]
	groups := []domain.Group{}
	positions := make(map[any]int)

	for _, row := range rows {
		v := row[level.index]
		key := domain.KeyOf(v)
		pos, seen := positions[key]
		if !seen {
			pos = len(groups)
			positions[key] = pos
			groups = append(groups, domain.Group{Field: level.field, Value: v})
		}
		groups[pos].Rows = append(groups[pos].Rows, row)
	}

	if len(levels) > 1 {
		for i := range groups {
			groups[i].Groups = groupRows(groups[i].Rows, levels[1:])
			groups[i].Rows = nil
		}
	}
	return groups
}

// sortRows is a stable multi-key sort: ties on every key keep their prior order.
func sortRows(rows []domain.Row, keys []sortKey) {
	slices.SortStableFunc(rows, func(a, b domain.Row) int {
		for _, k := range keys {
			if c := compare(a[k.index], b[k.index], k.desc); c != 0 {
				return c
			}
		}
		return 0
	})
}

// sortGroups reorders each grouping level by the sort keys that name that
// level's field and sorts the rows of every leaf group by all keys.
func sortGroups(groups []domain.Group, keys []sortKey) {
	if len(groups) == 0 {
		return
	}

	var levelKeys []sortKey
	for _, k := range keys {
		if k.field == groups[0].Field {
			levelKeys = append(levelKeys, k)
		}
	}
	if len(levelKeys) > 0 {
		slices.SortStableFunc(groups, func(a, b domain.Group) int {
			for _, k := range levelKeys {
				if c := compare(a.Value, b.Value, k.desc); c != 0 {
					return c
				}
			}
			return 0
		})
	}

	for i := range groups {
		if groups[i].Groups != nil {
			sortGroups(groups[i].Groups, keys)
		} else {
			sortRows(groups[i].Rows, keys)
		}
	}
}

func compare(a, b any, desc bool) int {
	c := domain.CompareValues(a, b)
	if desc {
		return -c
	}
	return c
}

func projectRows(rows []domain.Row, projection []int) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, row := range rows {
		projected := make(domain.Row, len(projection))
		for j, idx := range projection {
			projected[j] = row[idx]
		}
		out[i] = projected
	}
	return out
}

func projectGroups(groups []domain.Group, projection []int) []domain.Group {
	out := make([]domain.Group, len(groups))
	for i, g := range groups {
		out[i] = domain.Group{Field: g.Field, Value: g.Value}
		if g.Groups != nil {
			out[i].Groups = projectGroups(g.Groups, projection)
		} else {
			out[i].Rows = projectRows(g.Rows, projection)
		}
	}
	return out
}
