package record

import (
	"strings"

	"github.com/go-faster/errors"
)

const (
	ColEmployeeID     = "LI_EMP_ID"
	ColPersonName     = "Person Name"
	ColEmployeeStatus = "Employee Status"
	ColLevelGrouping  = "Level Grouping"
	ColLevel          = "Level"
	ColFiscalYear     = "Fiscal Year"
	ColRegion         = "Region"
	ColCountry        = "Country"
	ColBusinessUnit   = "Business_Unit"
	ColMeasure        = "Measure"
	ColPlanPeriod     = "Plan_Period"
	ColManager        = "Level_1_Manager"
	ColManager2       = "Level_2_Manager"
	ColQuotaStart     = "Quota Start Date"
	ColQuotaEnd       = "Quota End Date"
	ColMeasureWeight  = "Measure Weight"

	// RawPlanPeriod is the header some exports use for ColPlanPeriod.
	RawPlanPeriod = "Plan_Period;MBO_Description"
)

var ErrMissingColumn = errors.New("missing required column")

// ColumnKind drives both parsing of source cells and formatting of report cells.
type ColumnKind uint8

const (
	ColumnText ColumnKind = iota
	ColumnCentered
	ColumnCode
	ColumnAmount
	ColumnAttainment
	ColumnWeight
	ColumnDate
)

var periods = []string{"Q1", "Q2", "1H", "Q3", "Q4", "2H", "Annual"}

// DefaultColumns is the fixed report schema in display order.
var DefaultColumns = buildDefaultColumns()

func buildDefaultColumns() []string {
	cols := []string{
		ColEmployeeID, ColPersonName, ColEmployeeStatus, ColLevelGrouping, ColLevel,
		ColFiscalYear, ColRegion, ColCountry, ColBusinessUnit, ColMeasure,
		ColPlanPeriod, ColManager, ColManager2,
	}
	for _, p := range periods {
		cols = append(cols, p+" Credits", p+" Quota", p+" Att")
	}
	return append(cols, ColQuotaStart, ColQuotaEnd, ColMeasureWeight)
}

// RequiredColumns must be present in every source table.
var RequiredColumns = []string{ColManager, ColPersonName, ColRegion}

var centered = map[string]struct{}{
	ColEmployeeStatus: {}, ColLevelGrouping: {}, ColLevel: {}, ColRegion: {},
	ColCountry: {}, ColBusinessUnit: {}, ColPlanPeriod: {},
}

// KindOf classifies a column by name. Unknown columns are plain text.
func KindOf(column string) ColumnKind {
	switch column {
	case ColEmployeeID, ColFiscalYear:
		return ColumnCode
	case ColQuotaStart, ColQuotaEnd:
		return ColumnDate
	case ColMeasureWeight:
		return ColumnWeight
	}
	if _, ok := centered[column]; ok {
		return ColumnCentered
	}
	for _, p := range periods {
		switch column {
		case p + " Att":
			return ColumnAttainment
		case p + " Credits", p + " Quota":
			return ColumnAmount
		}
	}
	return ColumnText
}

// NormalizeHeader trims header cells and applies the canonical rename of
// RawPlanPeriod. The input slice is not modified.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == RawPlanPeriod {
			h = ColPlanPeriod
		}
		out[i] = h
	}
	return out
}

// CheckHeader fails with ErrMissingColumn when a required column is absent.
// It returns the schema columns the header lacks; in strict mode those are
// an error as well.
func CheckHeader(header []string, schema []string, strict bool) ([]string, error) {
	set := make(map[string]struct{}, len(header))
	for _, h := range header {
		set[h] = struct{}{}
	}
	for _, req := range RequiredColumns {
		if _, ok := set[req]; !ok {
			return nil, errors.Wrap(ErrMissingColumn, req)
		}
	}
	var missing []string
	for _, col := range schema {
		if _, ok := set[col]; !ok {
			missing = append(missing, col)
		}
	}
	if strict && len(missing) > 0 {
		return missing, errors.Wrap(ErrMissingColumn, strings.Join(missing, ", "))
	}
	return missing, nil
}
