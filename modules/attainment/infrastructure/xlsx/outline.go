package xlsx

import (
	"sort"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
)

// Group is a collapsible row range, inclusive, in sheet row numbers.
type Group struct {
	Start int
	End   int
	Level int
}

type openSection struct {
	row   int
	depth int
}

// OutlineGroups derives the collapsible ranges of a sequence whose first item
// lands on sheet row firstRow. Every section opens a group on the rows after
// it, ending before the next section at the same or a shallower depth. Groups
// are ordered by level, shallowest first, and each level goes through clamp.
func OutlineGroups(seq services.Sequence, firstRow int, clamp func(level int) int) []Group {
	var stack []openSection
	var groups []Group
	closeTo := func(lastRow, depth int) {
		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if lastRow > top.row {
				groups = append(groups, Group{Start: top.row + 1, End: lastRow, Level: top.depth + 1})
			}
		}
	}

	for i, it := range seq {
		if !it.IsSection() {
			continue
		}
		row := firstRow + i
		closeTo(row-1, it.Depth)
		stack = append(stack, openSection{row: row, depth: it.Depth})
	}
	closeTo(firstRow+len(seq)-1, -1)

	for i := range groups {
		groups[i].Level = clamp(groups[i].Level)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Level < groups[j].Level })
	return groups
}

// RowLevels flattens groups into the outline level of each row. A row covered
// by several groups takes the deepest level.
func RowLevels(groups []Group) map[int]int {
	out := make(map[int]int)
	for _, g := range groups {
		for row := g.Start; row <= g.End; row++ {
			if g.Level > out[row] {
				out[row] = g.Level
			}
		}
	}
	return out
}
