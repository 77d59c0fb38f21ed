package record

import (
	"strconv"
	"strings"
	"time"
)

type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindTime
)

// Value is a single cell of the source table. The zero Value is null.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	t    time.Time
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// Float returns the numeric payload. Only number values report ok.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// IsZero reports null values and numeric zero.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == 0
	default:
		return false
	}
}

// Text renders the value the way it would read in a spreadsheet cell.
// Null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.t.Format("2006-01-02")
	default:
		return ""
	}
}

// Present reports a non-null value whose text is not blank.
func (v Value) Present() bool {
	return !v.IsNull() && strings.TrimSpace(v.Text()) != ""
}

// Interface returns a value suitable for a spreadsheet writer, nil for null.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindTime:
		return v.t
	default:
		return nil
	}
}
