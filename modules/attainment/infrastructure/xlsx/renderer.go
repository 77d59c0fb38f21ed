// Package xlsx reads source tables and writes manager reports as workbooks.
package xlsx

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/layout"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
	"github.com/jacksonlee411/attainment-reports/modules/attainment/services"
)

const (
	titleRow     = 1
	subtitleRow  = 2
	spacerRow    = 3
	headerRow    = 4
	firstDataRow = 5

	// SectionPrefix precedes the sub-manager name on a section row.
	SectionPrefix = "▸ Team: "
)

var (
	numFmtAmount     = "#,##0"
	numFmtAttainment = "0.0%"
	numFmtWeight     = "0%"
	numFmtDate       = "yyyy-mm-dd"
	numFmtCode       = "0"
)

// Renderer turns one report into a single-sheet workbook. It is a pure
// function of the report and the layout; it keeps no state between calls.
type Renderer struct {
	layout layout.Layout
}

func NewRenderer(l layout.Layout) *Renderer {
	return &Renderer{layout: l}
}

// WriteReport renders report and saves it at path.
func (r *Renderer) WriteReport(report services.Report, path string) error {
	f, err := r.Render(report)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// Render builds the workbook in memory. The caller closes the file.
func (r *Renderer) Render(report services.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	p := &painter{
		f:      f,
		layout: r.layout,
		sheet:  r.layout.SheetName,
		styles: make(map[styleKey]int),
	}
	if err := p.paint(report); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

type styleKind uint8

const (
	styleTitle styleKind = iota
	styleSubtitle
	styleHeader
	styleSection
	styleCell
)

type styleKey struct {
	kind   styleKind
	column record.ColumnKind
	fill   string
	band   Band
	number bool
}

type painter struct {
	f       *excelize.File
	layout  layout.Layout
	sheet   string
	styles  map[styleKey]int
	lastCol string
}

func (p *painter) paint(report services.Report) error {
	if err := p.f.SetSheetName("Sheet1", p.sheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	last, err := excelize.ColumnNumberToName(len(p.layout.Columns))
	if err != nil {
		return errors.Wrap(err, "last column")
	}
	p.lastCol = last

	steps := []func(services.Report) error{
		p.banner,
		p.header,
		p.body,
		p.outline,
		p.sheetSettings,
	}
	for _, step := range steps {
		if err := step(report); err != nil {
			return err
		}
	}
	return nil
}

func (p *painter) banner(report services.Report) error {
	title := report.FiscalYear + " Attainment Report - " + report.Name
	subtitle := "Report Date: " + report.Date.Format("January 02, 2006") + "    |    Manager: " + report.Name
	if err := p.band(titleRow, title, styleKey{kind: styleTitle}, 30); err != nil {
		return err
	}
	if err := p.band(subtitleRow, subtitle, styleKey{kind: styleSubtitle}, 18); err != nil {
		return err
	}
	return p.f.SetRowHeight(p.sheet, spacerRow, 6)
}

// band writes a merged, single-value row across every column.
func (p *painter) band(row int, value string, key styleKey, height float64) error {
	start := "A" + strconv.Itoa(row)
	end := p.lastCol + strconv.Itoa(row)
	if err := p.f.MergeCell(p.sheet, start, end); err != nil {
		return errors.Wrapf(err, "merge row %d", row)
	}
	if err := p.f.SetCellValue(p.sheet, start, value); err != nil {
		return err
	}
	style, err := p.style(key)
	if err != nil {
		return err
	}
	if err := p.f.SetCellStyle(p.sheet, start, end, style); err != nil {
		return err
	}
	if height > 0 {
		return p.f.SetRowHeight(p.sheet, row, height)
	}
	return nil
}

func (p *painter) header(services.Report) error {
	style, err := p.style(styleKey{kind: styleHeader})
	if err != nil {
		return err
	}
	for i, col := range p.layout.Columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell := name + strconv.Itoa(headerRow)
		if err := p.f.SetCellValue(p.sheet, cell, col); err != nil {
			return err
		}
		if err := p.f.SetColWidth(p.sheet, name, name, p.layout.Width(col)); err != nil {
			return err
		}
	}
	if err := p.f.SetCellStyle(p.sheet, "A"+strconv.Itoa(headerRow), p.lastCol+strconv.Itoa(headerRow), style); err != nil {
		return err
	}
	if err := p.f.SetRowHeight(p.sheet, headerRow, 30); err != nil {
		return err
	}
	return p.f.AutoFilter(p.sheet, "A"+strconv.Itoa(headerRow)+":"+p.lastCol+strconv.Itoa(headerRow), nil)
}

func (p *painter) body(report services.Report) error {
	for i, it := range report.Items {
		row := firstDataRow + i
		indent := strings.Repeat("  ", it.Depth)
		if it.IsSection() {
			text := indent + SectionPrefix + identity.ExtractName(it.Section)
			key := styleKey{kind: styleSection, fill: p.layout.SectionFill(it.Depth)}
			if err := p.band(row, text, key, 20); err != nil {
				return errors.Wrapf(err, "section row %d", row)
			}
			continue
		}
		if err := p.dataRow(row, indent, it); err != nil {
			return errors.Wrapf(err, "source line %d", it.Record.Line())
		}
	}
	return nil
}

func (p *painter) dataRow(row int, indent string, it services.Item) error {
	fill := p.layout.LevelFill(it.Depth)
	for i, col := range p.layout.Columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell := name + strconv.Itoa(row)
		v := it.Record.Get(col)
		kind := record.KindOf(col)

		if col == p.layout.NameColumn {
			if err := p.f.SetCellValue(p.sheet, cell, indent+v.Text()); err != nil {
				return err
			}
		} else if !v.IsNull() {
			if err := p.f.SetCellValue(p.sheet, cell, v.Interface()); err != nil {
				return err
			}
		}

		key := styleKey{kind: styleCell, column: kind, fill: fill}
		if col == p.layout.NameColumn {
			key.column = record.ColumnText
		}
		if _, ok := v.Float(); ok {
			key.number = true
		}
		if kind == record.ColumnAttainment {
			key.band = ClassifyAttainment(v, p.layout.Thresholds)
		}
		if kind == record.ColumnAmount && v.IsZero() {
			key.number = false
		}
		style, err := p.style(key)
		if err != nil {
			return err
		}
		if err := p.f.SetCellStyle(p.sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// outline registers the collapsible row groups of the hierarchy.
func (p *painter) outline(report services.Report) error {
	groups := OutlineGroups(report.Items, firstDataRow, p.layout.OutlineLevel)
	for row, level := range RowLevels(groups) {
		if err := p.f.SetRowOutlineLevel(p.sheet, row, uint8(level)); err != nil {
			return errors.Wrapf(err, "outline row %d", row)
		}
	}
	return nil
}

func (p *painter) sheetSettings(services.Report) error {
	below := false
	fit := true
	if err := p.f.SetSheetProps(p.sheet, &excelize.SheetPropsOptions{
		OutlineSummaryBelow: &below,
		FitToPage:           &fit,
	}); err != nil {
		return errors.Wrap(err, "sheet properties")
	}

	topLeft, _ := excelize.CoordinatesToCellName(p.layout.FrozenCols+1, firstDataRow)
	if err := p.f.SetPanes(p.sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      p.layout.FrozenCols,
		YSplit:      headerRow,
		TopLeftCell: topLeft,
		ActivePane:  "bottomRight",
	}); err != nil {
		return errors.Wrap(err, "freeze panes")
	}

	landscape := "landscape"
	width, height := 1, 0
	if err := p.f.SetPageLayout(p.sheet, &excelize.PageLayoutOptions{
		Orientation: &landscape,
		FitToWidth:  &width,
		FitToHeight: &height,
	}); err != nil {
		return errors.Wrap(err, "page layout")
	}
	return nil
}

func (p *painter) style(key styleKey) (int, error) {
	if id, ok := p.styles[key]; ok {
		return id, nil
	}
	id, err := p.f.NewStyle(p.describe(key))
	if err != nil {
		return 0, errors.Wrap(err, "new style")
	}
	p.styles[key] = id
	return id, nil
}

func (p *painter) describe(key styleKey) *excelize.Style {
	c := p.layout.Colors
	family := p.layout.FontFamily
	border := []excelize.Border{
		{Type: "left", Color: c.Border, Style: 1},
		{Type: "right", Color: c.Border, Style: 1},
		{Type: "top", Color: c.Border, Style: 1},
		{Type: "bottom", Color: c.Border, Style: 1},
	}

	switch key.kind {
	case styleTitle:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 16, Color: c.TitleFont, Family: family},
			Fill:      solid(c.TitleFill),
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", Indent: 1},
		}
	case styleSubtitle:
		return &excelize.Style{
			Font:      &excelize.Font{Italic: true, Size: 10, Color: c.SubtitleFont, Family: family},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", Indent: 1},
		}
	case styleHeader:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 10, Color: c.HeaderFont, Family: family},
			Fill:      solid(c.HeaderFill),
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}
	case styleSection:
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: c.SectionFont, Family: family},
			Fill:      solid(key.fill),
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		}
	}

	s := &excelize.Style{
		Font:      &excelize.Font{Size: 10, Family: family},
		Fill:      solid(key.fill),
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	}
	switch key.column {
	case record.ColumnCentered:
		s.Alignment.Horizontal = "center"
	case record.ColumnCode:
		s.Alignment.Horizontal = "center"
		if key.number {
			s.CustomNumFmt = &numFmtCode
		}
	case record.ColumnAmount:
		s.Alignment.Horizontal = "right"
		if key.number {
			s.CustomNumFmt = &numFmtAmount
		}
	case record.ColumnWeight:
		s.Alignment.Horizontal = "center"
		if key.number {
			s.CustomNumFmt = &numFmtWeight
		}
	case record.ColumnDate:
		s.Alignment.Horizontal = "center"
		s.CustomNumFmt = &numFmtDate
	case record.ColumnAttainment:
		s.Alignment.Horizontal = "center"
		s.Font.Color = bandColor(key.band, c)
		if key.band == BandGood {
			s.Font.Bold = true
		}
		if key.band != BandMuted {
			s.CustomNumFmt = &numFmtAttainment
		}
	}
	return s
}

func solid(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}
