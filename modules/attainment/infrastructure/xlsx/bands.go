package xlsx

import (
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/layout"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

// Band is the colour class of an attainment cell.
type Band uint8

const (
	BandMuted Band = iota
	BandCritical
	BandWarning
	BandGood
)

func (b Band) String() string {
	switch b {
	case BandGood:
		return "good"
	case BandWarning:
		return "warning"
	case BandCritical:
		return "critical"
	default:
		return "muted"
	}
}

// ClassifyAttainment bands an attainment ratio. Zero, null and non-numeric
// values are muted.
func ClassifyAttainment(v record.Value, th layout.Thresholds) Band {
	f, ok := v.Float()
	if !ok || f == 0 {
		return BandMuted
	}
	switch {
	case f >= th.Good:
		return BandGood
	case f >= th.Warning:
		return BandWarning
	default:
		return BandCritical
	}
}

func bandColor(b Band, c layout.Colors) string {
	switch b {
	case BandGood:
		return c.Good
	case BandWarning:
		return c.Warning
	case BandCritical:
		return c.Critical
	default:
		return c.Muted
	}
}
