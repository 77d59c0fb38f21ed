package xlsx

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	ErrUnsupportedFormat = errors.New("unsupported source format")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrEmptySource       = errors.New("source has no header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type SourceOptions struct {
	// Sheet is the worksheet holding the table; empty means the first sheet.
	Sheet string
	// Schema lists the columns a report shows; missing ones are reported.
	Schema []string
	// Strict turns missing schema columns into an error.
	Strict bool
}

// Table is a loaded source table.
type Table struct {
	Header  []string
	Records []record.Record
	// Missing holds the schema columns the header does not carry.
	Missing []string
	Format  string
}

// ReadSource loads an xlsx or csv file, detected by content. The header is
// normalized and checked before any row is converted.
func ReadSource(path string, opts SourceOptions) (*Table, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	switch format {
	case "xlsx":
		rows, err = readWorkbookRows(path, opts.Sheet)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}
	t, err := buildTable(rows, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filepath.Base(path))
	}
	t.Format = format
	return t, nil
}

func detectFormat(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", path)
	}
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is(mimeXLSX):
			return "xlsx", nil
		case m.Is("text/csv"), m.Is("text/plain"):
			return "csv", nil
		}
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%s is %s", filepath.Base(path), mt.String())
}

func readWorkbookRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet == "" && len(sheets) > 0 {
		sheet = sheets[0]
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, errors.Wrapf(ErrSheetNotFound, "%q (have %s)", sheet, strings.Join(sheets, ", "))
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(b, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func buildTable(rows [][]string, opts SourceOptions) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}
	header := record.NormalizeHeader(rows[0])
	schema := opts.Schema
	if schema == nil {
		schema = record.DefaultColumns
	}
	missing, err := record.CheckHeader(header, schema, opts.Strict)
	if err != nil {
		return nil, err
	}

	kinds := make([]record.ColumnKind, len(header))
	for i, h := range header {
		kinds[i] = record.KindOf(h)
	}

	t := &Table{Header: header, Missing: missing}
	for i, row := range rows[1:] {
		fields := make(map[string]record.Value, len(header))
		empty := true
		for j, h := range header {
			if h == "" || j >= len(row) {
				continue
			}
			v := ParseCell(row[j], kinds[j])
			if !v.IsNull() {
				empty = false
			}
			fields[h] = v
		}
		if empty {
			continue
		}
		t.Records = append(t.Records, record.New(i+2, fields))
	}
	return t, nil
}

// ParseCell converts raw cell text by column kind. Blank text is null; text
// that does not parse as the kind's type is kept as a string.
func ParseCell(raw string, kind record.ColumnKind) record.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return record.Null()
	}
	switch kind {
	case record.ColumnAmount, record.ColumnAttainment, record.ColumnWeight:
		if f, ok := parseNumber(s); ok {
			return record.Number(f)
		}
	case record.ColumnCode:
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return record.Number(f)
		}
	case record.ColumnDate:
		if t, ok := parseDate(s); ok {
			return record.Time(t)
		}
	}
	return record.String(s)
}

func parseNumber(s string) (float64, bool) {
	percent := strings.HasSuffix(s, "%")
	s = strings.ReplaceAll(strings.TrimSuffix(s, "%"), ",", "")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	if percent {
		f /= 100
	}
	return f, true
}

func parseDate(s string) (time.Time, bool) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
