package services

import (
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

type tableBuilder struct {
	records []record.Record
}

// add appends a row; an empty manager or region is left null.
func (b *tableBuilder) add(person, manager, region string) *tableBuilder {
	return b.addWith(person, manager, region, nil)
}

func (b *tableBuilder) addWith(person, manager, region string, extra map[string]record.Value) *tableBuilder {
	fields := map[string]record.Value{
		record.ColPersonName: record.String(person),
	}
	if manager != "" {
		fields[record.ColManager] = record.String(manager)
	}
	if region != "" {
		fields[record.ColRegion] = record.String(region)
	}
	for k, v := range extra {
		fields[k] = v
	}
	b.records = append(b.records, record.New(len(b.records)+2, fields))
	return b
}

func table() *tableBuilder { return &tableBuilder{} }

// orgTable is an acyclic org: Carol leads Bob and Dan, Zed leads Yan.
func orgTable() []record.Record {
	return table().
		add("Bob (2)", "Carol (3)", "NA").
		add("Dan (4)", "Carol (3)", "NA").
		add("Alice (1)", "Bob (2)", "NA").
		add("Eve (5)", "Bob (2)", "EMEA").
		add("Alice (1)", "Bob (2)", "NA").
		add("Fay (6)", "Dan (4)", "NA").
		add("Yan (8)", "Zed (9)", "APAC").
		records
}

func lines(seq Sequence) []int {
	out := make([]int, 0, len(seq))
	for _, r := range seq.Records() {
		out = append(out, r.Line())
	}
	return out
}
