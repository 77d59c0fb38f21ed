package services

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

func builderFor(t *testing.T, records []record.Record, mode MatchMode) *HierarchyBuilder {
	t.Helper()
	m, err := NewMatcher(mode, records)
	require.NoError(t, err)
	return NewHierarchyBuilder(BuildIndex(records), m)
}

type flat struct {
	kind  ItemKind
	depth int
	who   string
}

func flatten(seq Sequence) []flat {
	out := make([]flat, 0, len(seq))
	for _, it := range seq {
		who := it.Section
		if !it.IsSection() {
			who = it.Record.PersonName().Text()
		}
		out = append(out, flat{kind: it.Kind, depth: it.Depth, who: who})
	}
	return out
}

func TestHierarchyBuilder_Simple(t *testing.T) {
	records := table().
		add("Alice (1)", "Bob (2)", "NA").
		add("Bob (2)", "Carol (3)", "NA").
		records

	seq := builderFor(t, records, MatchLabel).Build("Carol (3)")
	require.Equal(t, []flat{
		{kind: ItemSection, depth: 0, who: "Bob (2)"},
		{kind: ItemRecord, depth: 0, who: "Bob (2)"},
		{kind: ItemRecord, depth: 1, who: "Alice (1)"},
	}, flatten(seq))
	require.Equal(t, "Bob (2)", seq[0].Label)
}

func TestHierarchyBuilder_OrdersLeavesBeforeTeams(t *testing.T) {
	seq := builderFor(t, orgTable(), MatchLabel).Build("Bob (2)")
	require.Equal(t, []flat{
		{kind: ItemRecord, depth: 0, who: "Alice (1)"},
		{kind: ItemRecord, depth: 0, who: "Alice (1)"},
		{kind: ItemRecord, depth: 0, who: "Eve (5)"},
	}, flatten(seq))

	seq = builderFor(t, orgTable(), MatchLabel).Build("Carol (3)")
	require.Equal(t, []flat{
		{kind: ItemSection, depth: 0, who: "Bob (2)"},
		{kind: ItemRecord, depth: 0, who: "Bob (2)"},
		{kind: ItemRecord, depth: 1, who: "Alice (1)"},
		{kind: ItemRecord, depth: 1, who: "Alice (1)"},
		{kind: ItemRecord, depth: 1, who: "Eve (5)"},
		{kind: ItemSection, depth: 0, who: "Dan (4)"},
		{kind: ItemRecord, depth: 0, who: "Dan (4)"},
		{kind: ItemRecord, depth: 1, who: "Fay (6)"},
	}, flatten(seq))
}

func TestHierarchyBuilder_UnknownLabel(t *testing.T) {
	require.Empty(t, builderFor(t, orgTable(), MatchLabel).Build("Nobody (77)"))
}

func TestHierarchyBuilder_TwoNodeCycle(t *testing.T) {
	records := table().
		add("A (1)", "B (2)", "NA").
		add("B (2)", "A (1)", "NA").
		records

	seq := builderFor(t, records, MatchLabel).Build("A (1)")
	require.Equal(t, []flat{
		{kind: ItemSection, depth: 0, who: "B (2)"},
		{kind: ItemRecord, depth: 0, who: "B (2)"},
		{kind: ItemRecord, depth: 1, who: "A (1)"},
	}, flatten(seq))
	for _, it := range seq {
		if it.IsSection() {
			require.NotEqual(t, "A (1)", it.Label, "A must not open a team under B")
		}
	}
}

func TestHierarchyBuilder_SelfAndLongCycles(t *testing.T) {
	self := table().add("A (1)", "A (1)", "NA").records
	require.Len(t, builderFor(t, self, MatchLabel).Build("A (1)"), 1)

	ring := table().
		add("A (1)", "C (3)", "NA").
		add("B (2)", "A (1)", "NA").
		add("C (3)", "B (2)", "NA").
		records
	seq := builderFor(t, ring, MatchLabel).Build("A (1)")
	require.Equal(t, []flat{
		{kind: ItemSection, depth: 0, who: "B (2)"},
		{kind: ItemRecord, depth: 0, who: "B (2)"},
		{kind: ItemSection, depth: 1, who: "C (3)"},
		{kind: ItemRecord, depth: 1, who: "C (3)"},
		{kind: ItemRecord, depth: 2, who: "A (1)"},
	}, flatten(seq))
}

func TestHierarchyBuilder_SiblingsDoNotShareGuard(t *testing.T) {
	// X appears under both P and Q; each branch expands X's team.
	records := table().
		add("P (1)", "Root (9)", "NA").
		add("Q (2)", "Root (9)", "NA").
		add("X (3)", "P (1)", "NA").
		add("X (3)", "Q (2)", "NA").
		add("Y (4)", "X (3)", "NA").
		records

	seq := builderFor(t, records, MatchLabel).Build("Root (9)")
	var teams []string
	for _, it := range seq {
		if it.IsSection() {
			teams = append(teams, fmt.Sprintf("%d:%s", it.Depth, it.Label))
		}
	}
	require.Equal(t, []string{"0:P (1)", "1:X (3)", "0:Q (2)", "1:X (3)"}, teams)
}

func TestHierarchyBuilder_UsesCanonicalManagerLabel(t *testing.T) {
	// Bob is referenced as "Bob Smith (0002)" by his reports.
	records := table().
		add("Bob (2)", "Carol (3)", "NA").
		add("Alice (1)", "Bob Smith (0002)", "NA").
		records

	seq := builderFor(t, records, MatchLabel).Build("Carol (3)")
	require.Len(t, seq, 3)
	require.Equal(t, "Bob Smith (0002)", seq[0].Label)
	require.Equal(t, "Bob (2)", seq[0].Section)
	require.Equal(t, 1, seq[2].Depth)
}

func TestHierarchyBuilder_IdentityMatchJoinsSpellings(t *testing.T) {
	records := table().
		add("Ann (10)", "Bob (2)", "NA").
		add("Ben (11)", "Bob  (002)", "NA").
		records

	require.Len(t, builderFor(t, records, MatchLabel).Build("Bob (2)"), 1)
	require.Len(t, builderFor(t, records, MatchIdentity).Build("Bob (2)"), 2)
}

func TestHierarchyBuilder_ForestEmitsEveryRecordOnce(t *testing.T) {
	records := orgTable()
	b := builderFor(t, records, MatchLabel)

	var all []int
	for _, label := range TopLevel(b.index) {
		all = append(all, lines(b.Build(label))...)
	}
	sort.Ints(all)

	want := make([]int, 0, len(records))
	for _, r := range records {
		want = append(want, r.Line())
	}
	require.Equal(t, want, all)
	require.Equal(t, []string{"Carol (3)", "Zed (9)"}, TopLevel(b.index))
}

func TestHierarchyBuilder_DepthIncreasesByOneAcrossSections(t *testing.T) {
	seq := builderFor(t, orgTable(), MatchLabel).Build("Carol (3)")

	sectionDepth := make(map[string]int)
	for _, it := range seq {
		if it.IsSection() {
			sectionDepth[it.Label] = it.Depth
		}
	}
	require.NotEmpty(t, sectionDepth)
	for _, it := range seq {
		if it.IsSection() {
			continue
		}
		if d, ok := sectionDepth[it.Record.Manager().Text()]; ok {
			require.Equal(t, d+1, it.Depth, it.Record.PersonName().Text())
		}
	}
}

func TestHierarchyBuilder_RecordsWithoutPersonName(t *testing.T) {
	records := []record.Record{
		record.New(2, map[string]record.Value{record.ColManager: record.String("M (1)")}),
		record.New(3, map[string]record.Value{
			record.ColManager:    record.String("M (1)"),
			record.ColPersonName: record.String("Zoe (5)"),
		}),
	}
	seq := builderFor(t, records, MatchLabel).Build("M (1)")
	require.Equal(t, []int{2, 3}, lines(seq))
}
