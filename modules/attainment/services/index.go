package services

import (
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

// Index is the identity index of one run. It is built once and only read afterwards.
// All identifier keys are normalized.
type Index struct {
	employeeName   map[string]string
	employeeRegion map[string]string
	managerLabel   map[string]string
	reportsTo      map[string]bool
	labels         []string
}

// BuildIndex derives the identifier keyed mappings from the full record set.
// Composites without a parseable identifier are left out of every mapping.
func BuildIndex(records []record.Record) *Index {
	idx := &Index{
		employeeName:   make(map[string]string),
		employeeRegion: make(map[string]string),
		managerLabel:   make(map[string]string),
		reportsTo:      make(map[string]bool),
	}

	firstRegion := make(map[string]string)
	for _, r := range records {
		name := r.PersonName().Text()
		if _, ok := firstRegion[name]; !ok && r.PersonName().Present() {
			firstRegion[name] = r.Region().Text()
		}
		if id, ok := identity.ParseID(name); ok && r.Manager().Present() {
			idx.reportsTo[id] = true
		}
	}

	for _, name := range record.DistinctText(records, record.ColPersonName) {
		id, ok := identity.ParseID(name)
		if !ok {
			continue
		}
		if _, seen := idx.employeeName[id]; !seen {
			idx.employeeName[id] = name
		}
		if region := firstRegion[name]; region != "" {
			idx.employeeRegion[id] = region
		}
	}

	idx.labels = record.DistinctText(records, record.ColManager)
	for _, label := range idx.labels {
		if id, ok := identity.ParseID(label); ok {
			idx.managerLabel[id] = label
		}
	}
	return idx
}

// EmployeeName returns the first employee composite seen for id.
func (i *Index) EmployeeName(id string) (string, bool) {
	name, ok := i.employeeName[identity.NormalizeID(id)]
	return name, ok
}

// EmployeeRegion returns the region recorded for the employee id.
func (i *Index) EmployeeRegion(id string) (string, bool) {
	region, ok := i.employeeRegion[identity.NormalizeID(id)]
	return region, ok
}

// IsManager reports whether id is embedded in at least one manager label.
func (i *Index) IsManager(id string) bool {
	_, ok := i.managerLabel[identity.NormalizeID(id)]
	return ok
}

// ManagerLabel returns the canonical manager label of id. When several
// labels carry the same id the last distinct one wins.
func (i *Index) ManagerLabel(id string) (string, bool) {
	label, ok := i.managerLabel[identity.NormalizeID(id)]
	return label, ok
}

// ReportsToSomeone reports whether the employee id has at least one record
// naming a manager.
func (i *Index) ReportsToSomeone(id string) bool {
	return i.reportsTo[identity.NormalizeID(id)]
}

// Labels returns the distinct manager labels in order of first appearance.
func (i *Index) Labels() []string {
	return append([]string(nil), i.labels...)
}

func (i *Index) ManagerCount() int {
	return len(i.managerLabel)
}
