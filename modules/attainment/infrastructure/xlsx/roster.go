package xlsx

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
)

const (
	RosterIDColumn    = "Employee ID"
	RosterEmailColumn = "Email - Work"
)

var ErrRosterColumns = errors.New("roster is missing a required column")

type RosterOptions struct {
	Sheet string
	// HeaderRow is the 1-based row holding the workbook header. CSV rosters
	// always start with their header.
	HeaderRow int
}

// ReadRoster maps normalized employee ids to work emails.
func ReadRoster(path string, opts RosterOptions) (map[string]string, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	headerRow := 1
	if format == "xlsx" {
		rows, err = readWorkbookRows(path, opts.Sheet)
		if opts.HeaderRow > 0 {
			headerRow = opts.HeaderRow
		}
	} else {
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < headerRow {
		return nil, errors.Wrapf(ErrEmptySource, "roster header row %d", headerRow)
	}

	idCol, emailCol := -1, -1
	for i, h := range rows[headerRow-1] {
		switch strings.TrimSpace(h) {
		case RosterIDColumn:
			idCol = i
		case RosterEmailColumn:
			emailCol = i
		}
	}
	if idCol < 0 || emailCol < 0 {
		return nil, errors.Wrapf(ErrRosterColumns, "need %q and %q on row %d", RosterIDColumn, RosterEmailColumn, headerRow)
	}

	out := make(map[string]string)
	for _, row := range rows[headerRow:] {
		if idCol >= len(row) || emailCol >= len(row) {
			continue
		}
		id, ok := rosterID(row[idCol])
		email := strings.TrimSpace(row[emailCol])
		if !ok || email == "" {
			continue
		}
		out[id] = email
	}
	return out, nil
}

// rosterID accepts "00123", "123" and numeric cells such as "123.0".
func rosterID(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && f >= 0 {
		if !strings.ContainsAny(s, ".eE") {
			return identity.NormalizeID(s), true
		}
		return identity.NormalizeID(strconv.FormatFloat(f, 'f', 0, 64)), true
	}
	return identity.NormalizeID(s), true
}
