package xlsx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/layout"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
)

var clamp = layout.Default().OutlineLevel

func sec(depth int) services.Item {
	return services.Item{Kind: services.ItemSection, Depth: depth}
}

func rec(depth int) services.Item {
	return services.Item{Kind: services.ItemRecord, Depth: depth}
}

func TestOutlineGroups(t *testing.T) {
	seq := services.Sequence{
		sec(0), rec(0), // rows 5, 6
		sec(1), rec(1), rec(2), // rows 7, 8, 9
		sec(0), rec(0), rec(1), // rows 10, 11, 12
	}
	groups := OutlineGroups(seq, 5, clamp)
	require.Equal(t, []Group{
		{Start: 6, End: 9, Level: 1},
		{Start: 11, End: 12, Level: 1},
		{Start: 8, End: 9, Level: 2},
	}, groups)

	require.Equal(t, map[int]int{6: 1, 7: 1, 8: 2, 9: 2, 11: 1, 12: 1}, RowLevels(groups))
}

func TestOutlineGroups_TrailingSectionWithoutRows(t *testing.T) {
	seq := services.Sequence{rec(0), sec(0)}
	require.Empty(t, OutlineGroups(seq, 5, clamp))
	require.Empty(t, OutlineGroups(nil, 5, clamp))
}

func TestOutlineGroups_CapsLevel(t *testing.T) {
	var seq services.Sequence
	for d := 0; d < 10; d++ {
		seq = append(seq, sec(d), rec(d))
	}
	seq = append(seq, rec(10))

	groups := OutlineGroups(seq, 1, clamp)
	require.Len(t, groups, 10)
	for i, g := range groups {
		require.LessOrEqual(t, g.Level, 7)
		if i > 0 {
			require.GreaterOrEqual(t, g.Level, groups[i-1].Level)
		}
	}
	levels := RowLevels(groups)
	require.Equal(t, 7, levels[len(seq)])
	require.Equal(t, 1, levels[2])
}

func TestOutlineGroups_CustomCap(t *testing.T) {
	l := layout.Default()
	l.OutlineMax = 2
	seq := services.Sequence{sec(0), sec(1), sec(2), rec(3)}
	levels := RowLevels(OutlineGroups(seq, 1, l.OutlineLevel))
	require.Equal(t, map[int]int{2: 1, 3: 2, 4: 2}, levels)
}
