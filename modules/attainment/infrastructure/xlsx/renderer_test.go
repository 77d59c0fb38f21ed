package xlsx

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/layout"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
)

const sheet = "Attainment Report"

func person(line int, name, manager string, att float64) record.Record {
	return record.New(line, map[string]record.Value{
		record.ColEmployeeID:    record.String("00" + strconv.Itoa(line)),
		record.ColPersonName:    record.String(name),
		record.ColManager:       record.String(manager),
		record.ColRegion:        record.String("NA"),
		record.ColFiscalYear:    record.Number(2026),
		record.ColQuotaStart:    record.Time(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)),
		"Annual Quota":          record.Number(250000),
		"Annual Credits":        record.Number(0),
		"Annual Att":            record.Number(att),
		record.ColMeasureWeight: record.Number(0.5),
	})
}

func carolReport() services.Report {
	return services.Report{
		Label:      "Carol (3)",
		Name:       "Carol",
		FiscalYear: "FY26",
		Date:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Items: services.Sequence{
			{Kind: services.ItemRecord, Depth: 0, Record: person(2, "Dan", "Carol (3)", 0.85)},
			{Kind: services.ItemSection, Depth: 0, Section: "Bob (2)", Label: "Bob (2)"},
			{Kind: services.ItemRecord, Depth: 0, Record: person(3, "Bob", "Carol (3)", 1.05)},
			{Kind: services.ItemRecord, Depth: 1, Record: person(4, "Alice", "Bob (2)", 0.5)},
		},
	}
}

func render(t *testing.T) *excelize.File {
	t.Helper()
	f, err := NewRenderer(layout.Default()).Render(carolReport())
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func raw(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestRender_Banner(t *testing.T) {
	f := render(t)

	require.Equal(t, []string{sheet}, f.GetSheetList())
	require.Equal(t, "FY26 Attainment Report - Carol", raw(t, f, "A1"))
	require.Equal(t, "Report Date: January 05, 2026    |    Manager: Carol", raw(t, f, "A2"))

	merges, err := f.GetMergeCells(sheet)
	require.NoError(t, err)
	spans := make(map[string]string, len(merges))
	for _, m := range merges {
		spans[m.GetStartAxis()] = m.GetEndAxis()
	}
	require.Equal(t, "AK1", spans["A1"])
	require.Equal(t, "AK2", spans["A2"])
	require.Equal(t, "AK6", spans["A6"])
	require.NotContains(t, spans, "A5")

	h, err := f.GetRowHeight(sheet, 1)
	require.NoError(t, err)
	require.Equal(t, 30.0, h)
	h, err = f.GetRowHeight(sheet, 3)
	require.NoError(t, err)
	require.Equal(t, 6.0, h)
}

func TestRender_Header(t *testing.T) {
	f := render(t)

	for i, col := range record.DefaultColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		require.NoError(t, err)
		require.Equal(t, col, raw(t, f, cell))
	}
	w, err := f.GetColWidth(sheet, "B")
	require.NoError(t, err)
	require.Equal(t, 28.0, w)
}

func TestRender_Body(t *testing.T) {
	f := render(t)

	require.Equal(t, "Dan", raw(t, f, "B5"))
	require.Equal(t, SectionPrefix+"Bob", raw(t, f, "A6"))
	require.Equal(t, "Bob", raw(t, f, "B7"))
	require.Equal(t, "  Alice", raw(t, f, "B8"))

	// Annual Att sits in column AH, Annual Quota in AG.
	require.Equal(t, "1.05", raw(t, f, "AH7"))
	require.Equal(t, "250000", raw(t, f, "AG5"))

	serial, err := strconv.ParseFloat(raw(t, f, "AI5"), 64)
	require.NoError(t, err)
	start, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	require.Equal(t, "2025-07-01", start.Format("2006-01-02"))

	require.Empty(t, raw(t, f, "AJ5"))
}

func TestRender_Styles(t *testing.T) {
	f := render(t)

	style := func(cell string) int {
		id, err := f.GetCellStyle(sheet, cell)
		require.NoError(t, err)
		return id
	}
	require.Equal(t, style("B5"), style("B7"))
	require.NotEqual(t, style("B5"), style("B8"))
	require.Equal(t, style("A6"), style("AK6"))
	require.NotEqual(t, style("AH5"), style("AH7"))

	good, err := f.GetStyle(style("AH7"))
	require.NoError(t, err)
	require.True(t, good.Font.Bold)
	warn, err := f.GetStyle(style("AH5"))
	require.NoError(t, err)
	require.False(t, warn.Font.Bold)
}

func TestRender_OutlineAndSheetSettings(t *testing.T) {
	f := render(t)

	for row, want := range map[int]uint8{5: 0, 6: 0, 7: 1, 8: 1} {
		got, err := f.GetRowOutlineLevel(sheet, row)
		require.NoError(t, err)
		require.Equal(t, want, got, "row %d", row)
	}

	props, err := f.GetSheetProps(sheet)
	require.NoError(t, err)
	require.NotNil(t, props.OutlineSummaryBelow)
	require.False(t, *props.OutlineSummaryBelow)

	panes, err := f.GetPanes(sheet)
	require.NoError(t, err)
	require.True(t, panes.Freeze)
	require.Equal(t, 2, panes.XSplit)
	require.Equal(t, 4, panes.YSplit)
	require.Equal(t, "C5", panes.TopLeftCell)

	pl, err := f.GetPageLayout(sheet)
	require.NoError(t, err)
	require.Equal(t, "landscape", *pl.Orientation)
	require.Equal(t, 1, *pl.FitToWidth)
}

func TestRenderer_WriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FY26_Attainment_Carol_20260105.xlsx")
	require.NoError(t, NewRenderer(layout.Default()).WriteReport(carolReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{sheet}, f.GetSheetList())
	v, err := f.GetCellValue(sheet, "A6")
	require.NoError(t, err)
	require.Equal(t, "▸ Team: Bob", v)
}

func TestRenderer_CustomLayout(t *testing.T) {
	l := layout.Default()
	l.SheetName = "Team"
	l.Columns = []string{record.ColPersonName, "Annual Att"}

	f, err := NewRenderer(l).Render(carolReport())
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Team"}, f.GetSheetList())
	merges, err := f.GetMergeCells("Team")
	require.NoError(t, err)
	require.NotEmpty(t, merges)
	require.Equal(t, "B1", merges[0].GetEndAxis())

	v, err := f.GetCellValue("Team", "B7", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Equal(t, "1.05", v)
}
