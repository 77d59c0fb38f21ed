package record

import (
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultColumns(t *testing.T) {
	require.Len(t, DefaultColumns, 37)
	require.Equal(t, ColEmployeeID, DefaultColumns[0])
	require.Equal(t, ColPersonName, DefaultColumns[1])
	require.Equal(t, "Q1 Credits", DefaultColumns[13])
	require.Equal(t, "Annual Att", DefaultColumns[33])
	require.Equal(t, ColMeasureWeight, DefaultColumns[36])
}

func TestKindOf(t *testing.T) {
	cases := map[string]ColumnKind{
		"Q1 Att":         ColumnAttainment,
		"Annual Att":     ColumnAttainment,
		"2H Credits":     ColumnAmount,
		"1H Quota":       ColumnAmount,
		ColMeasureWeight: ColumnWeight,
		ColQuotaStart:    ColumnDate,
		ColEmployeeID:    ColumnCode,
		ColRegion:        ColumnCentered,
		ColPersonName:    ColumnText,
		"Something Else": ColumnText,
	}
	for col, want := range cases {
		require.Equal(t, want, KindOf(col), col)
	}
}

func TestNormalizeHeader_RenamesPlanPeriod(t *testing.T) {
	in := []string{" Person Name ", RawPlanPeriod, "Region"}
	got := NormalizeHeader(in)
	require.Equal(t, []string{ColPersonName, ColPlanPeriod, ColRegion}, got)
	require.Equal(t, " Person Name ", in[0])
}

func TestCheckHeader(t *testing.T) {
	t.Run("missing required column is fatal", func(t *testing.T) {
		_, err := CheckHeader([]string{ColPersonName, ColRegion}, DefaultColumns, false)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrMissingColumn))
		require.Contains(t, err.Error(), ColManager)
	})

	t.Run("missing schema columns are reported", func(t *testing.T) {
		missing, err := CheckHeader([]string{ColPersonName, ColRegion, ColManager}, []string{ColPersonName, "Q1 Att"}, false)
		require.NoError(t, err)
		require.Equal(t, []string{"Q1 Att"}, missing)
	})

	t.Run("strict mode rejects missing schema columns", func(t *testing.T) {
		_, err := CheckHeader([]string{ColPersonName, ColRegion, ColManager}, []string{"Q1 Att"}, true)
		require.True(t, errors.Is(err, ErrMissingColumn))
	})
}

func TestValue(t *testing.T) {
	require.True(t, Null().IsNull())
	require.True(t, Null().IsZero())
	require.False(t, Null().Present())
	require.True(t, Number(0).IsZero())
	require.False(t, Number(0.5).IsZero())
	require.Equal(t, "2026", Number(2026).Text())
	require.False(t, String("  ").Present())

	d := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-07-01", Time(d).Text())
	got, ok := Time(d).Time()
	require.True(t, ok)
	require.Equal(t, d, got)
	require.Nil(t, Null().Interface())
}

func TestDistinctText(t *testing.T) {
	records := []Record{
		New(2, map[string]Value{ColManager: String("B (2)")}),
		New(3, map[string]Value{ColManager: String("A (1)")}),
		New(4, map[string]Value{ColManager: String("B (2)")}),
		New(5, map[string]Value{}),
	}
	require.Equal(t, []string{"B (2)", "A (1)"}, DistinctText(records, ColManager))
}
