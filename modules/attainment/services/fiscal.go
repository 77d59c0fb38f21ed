package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

// DefaultFiscalYear is used when the source carries no usable fiscal year.
const DefaultFiscalYear = "FY26"

var fiscalYearPattern = regexp.MustCompile(`(?i)^(?:FY)?\s*(\d{2}|\d{4})$`)

// DetectFiscalYear returns the most frequent Fiscal Year value of records as
// FYnn. Ties go to the value seen first; fallback is used when nothing parses.
func DetectFiscalYear(records []record.Record, fallback string) string {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		fy, ok := FormatFiscalYear(r.Get(record.ColFiscalYear).Text())
		if !ok {
			continue
		}
		if counts[fy] == 0 {
			order = append(order, fy)
		}
		counts[fy]++
	}
	best, bestCount := fallback, 0
	for _, fy := range order {
		if counts[fy] > bestCount {
			best, bestCount = fy, counts[fy]
		}
	}
	if best == "" {
		return DefaultFiscalYear
	}
	return best
}

// FormatFiscalYear renders 2026, "FY2026" and "fy26" as "FY26".
func FormatFiscalYear(raw string) (string, bool) {
	m := fiscalYearPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("FY%02d", n%100), true
}

// ReportPrefix is the fixed file name prefix of a run, e.g. "FY26_Attainment".
func ReportPrefix(fiscalYear, suffix string) string {
	if suffix == "" {
		suffix = "Attainment"
	}
	return fiscalYear + "_" + suffix
}
