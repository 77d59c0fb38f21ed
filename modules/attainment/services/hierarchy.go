package services

import (
	"sort"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

type ItemKind uint8

const (
	ItemRecord ItemKind = iota
	ItemSection
)

// Item is one element of a flattened hierarchy. A section item opens the nested
// team of Section (the sub-manager's person composite); Label is the manager
// label the team was collected under.
type Item struct {
	Kind    ItemKind
	Depth   int
	Record  record.Record
	Section string
	Label   string
}

func (i Item) IsSection() bool { return i.Kind == ItemSection }

// Sequence is a depth-annotated, pre-order flattening of one manager's subtree.
type Sequence []Item

// Records returns the record items of s in order.
func (s Sequence) Records() []record.Record {
	out := make([]record.Record, 0, len(s))
	for _, it := range s {
		if !it.IsSection() {
			out = append(out, it.Record)
		}
	}
	return out
}

type HierarchyBuilder struct {
	index   *Index
	matcher ReportMatcher
}

func NewHierarchyBuilder(idx *Index, matcher ReportMatcher) *HierarchyBuilder {
	return &HierarchyBuilder{index: idx, matcher: matcher}
}

// path is the chain of labels from the report root to the current manager.
// Each branch extends its own copy, so siblings never see each other's labels.
type path struct {
	label  string
	parent *path
}

func (p *path) contains(label string) bool {
	for n := p; n != nil; n = n.parent {
		if n.label == label {
			return true
		}
	}
	return false
}

// Build flattens the subtree of label. A label already on the current path
// yields nothing, so a reporting cycle terminates.
func (b *HierarchyBuilder) Build(label string) Sequence {
	return b.build(label, 0, nil)
}

func (b *HierarchyBuilder) build(label string, depth int, parent *path) Sequence {
	if parent.contains(label) {
		return nil
	}
	here := &path{label: label, parent: parent}

	reports := groupByPerson(b.matcher.DirectReports(label))
	var leaves, managers []string
	for _, name := range reports.names {
		if id, ok := identity.ParseID(name); ok && b.index.IsManager(id) {
			managers = append(managers, name)
			continue
		}
		leaves = append(leaves, name)
	}
	sort.Strings(leaves)
	sort.Strings(managers)

	var out Sequence
	for _, name := range leaves {
		out = appendRows(out, reports.rows[name], depth)
	}
	for _, name := range managers {
		sub := name
		if id, ok := identity.ParseID(name); ok {
			if l, ok := b.index.ManagerLabel(id); ok {
				sub = l
			}
		}
		// A sub-manager whose team is already being expanded higher up the
		// path keeps its own rows but gets no section of its own. Emitting the
		// marker and recursing would only open an empty team, so the marker is
		// intentionally left out here.
		if here.contains(sub) {
			out = appendRows(out, reports.rows[name], depth)
			continue
		}
		out = append(out, Item{Kind: ItemSection, Depth: depth, Section: name, Label: sub})
		out = appendRows(out, reports.rows[name], depth)
		out = append(out, b.build(sub, depth+1, here)...)
	}
	return out
}

func appendRows(out Sequence, rows []record.Record, depth int) Sequence {
	for _, r := range rows {
		out = append(out, Item{Kind: ItemRecord, Depth: depth, Record: r})
	}
	return out
}

type personRows struct {
	names []string
	rows  map[string][]record.Record
}

// groupByPerson groups records by person composite. A missing name groups
// under the empty string.
func groupByPerson(records []record.Record) personRows {
	g := personRows{rows: make(map[string][]record.Record)}
	for _, r := range records {
		name := r.PersonName().Text()
		if _, ok := g.rows[name]; !ok {
			g.names = append(g.names, name)
		}
		g.rows[name] = append(g.rows[name], r)
	}
	return g
}

// TopLevel returns the manager labels, in first-appearance order, whose own
// person has no record naming a manager. Their sequences together cover every
// record of an acyclic table.
func TopLevel(idx *Index) []string {
	var out []string
	for _, label := range idx.labels {
		if id, ok := identity.ParseID(label); ok && idx.ReportsToSomeone(id) {
			continue
		}
		out = append(out, label)
	}
	return out
}
