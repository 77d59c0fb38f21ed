package services

import (
	"sort"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

// OtherRegion collects managers without any region signal.
const OtherRegion = "OTHER"

// RegionMap assigns every manager label exactly one region.
type RegionMap map[string]string

// ResolveRegions resolves the region of every manager label: the manager's own
// employee region first, then the most frequent region among the records that
// name the label, then OtherRegion.
func ResolveRegions(idx *Index, records []record.Record) RegionMap {
	direct := NewLabelMatcher(records)
	out := make(RegionMap, len(idx.labels))
	for _, label := range idx.labels {
		if id, ok := identity.ParseID(label); ok {
			if region, ok := idx.EmployeeRegion(id); ok {
				out[label] = region
				continue
			}
		}
		if region, ok := modeRegion(direct.DirectReports(label)); ok {
			out[label] = region
			continue
		}
		out[label] = OtherRegion
	}
	return out
}

// modeRegion returns the most frequent present region; ties go to the region
// encountered first.
func modeRegion(records []record.Record) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		if !r.Region().Present() {
			continue
		}
		region := r.Region().Text()
		if counts[region] == 0 {
			order = append(order, region)
		}
		counts[region]++
	}
	best, bestCount := "", 0
	for _, region := range order {
		if counts[region] > bestCount {
			best, bestCount = region, counts[region]
		}
	}
	return best, bestCount > 0
}

// Region returns the resolved region of label, OtherRegion when unknown.
func (m RegionMap) Region(label string) string {
	if region, ok := m[label]; ok {
		return region
	}
	return OtherRegion
}

// AllRegions returns the distinct resolved regions, sorted.
func (m RegionMap) AllRegions() []string {
	set := make(map[string]struct{}, len(m))
	for _, region := range m {
		set[region] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for region := range set {
		out = append(out, region)
	}
	sort.Strings(out)
	return out
}
