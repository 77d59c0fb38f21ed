package record

// Record is one row of the source table. Records are never mutated after load.
type Record struct {
	line   int
	fields map[string]Value
}

func New(line int, fields map[string]Value) Record {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Record{line: line, fields: cp}
}

// Line is the 1-based row number in the source sheet (header is line 1).
func (r Record) Line() int { return r.line }

func (r Record) Get(column string) Value { return r.fields[column] }

func (r Record) Has(column string) bool {
	_, ok := r.fields[column]
	return ok
}

func (r Record) PersonName() Value { return r.fields[ColPersonName] }
func (r Record) Manager() Value    { return r.fields[ColManager] }
func (r Record) Region() Value     { return r.fields[ColRegion] }

// DistinctText returns the distinct present values of column in order of first appearance.
func DistinctText(records []Record, column string) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		v := r.Get(column)
		if !v.Present() {
			continue
		}
		s := v.Text()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
