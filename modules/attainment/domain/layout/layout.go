// Package layout holds the report presentation settings: column schema,
// widths, palettes and attainment thresholds.
package layout

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/record"
)

// MaxOutlineLevel is the deepest row outline level a worksheet accepts.
const MaxOutlineLevel = 7

var ErrInvalidLayout = errors.New("invalid report layout")

type Colors struct {
	TitleFill    string `yaml:"title_fill" toml:"title_fill" validate:"len=6,hexadecimal"`
	TitleFont    string `yaml:"title_font" toml:"title_font" validate:"len=6,hexadecimal"`
	SubtitleFont string `yaml:"subtitle_font" toml:"subtitle_font" validate:"len=6,hexadecimal"`
	HeaderFill   string `yaml:"header_fill" toml:"header_fill" validate:"len=6,hexadecimal"`
	HeaderFont   string `yaml:"header_font" toml:"header_font" validate:"len=6,hexadecimal"`
	SectionFont  string `yaml:"section_font" toml:"section_font" validate:"len=6,hexadecimal"`
	Border       string `yaml:"border" toml:"border" validate:"len=6,hexadecimal"`
	Good         string `yaml:"good" toml:"good" validate:"len=6,hexadecimal"`
	Warning      string `yaml:"warning" toml:"warning" validate:"len=6,hexadecimal"`
	Critical     string `yaml:"critical" toml:"critical" validate:"len=6,hexadecimal"`
	Muted        string `yaml:"muted" toml:"muted" validate:"len=6,hexadecimal"`
}

// Thresholds split attainment into bands: >= Good is good, >= Warning is a
// warning, anything below (and nonzero) is critical.
type Thresholds struct {
	Good    float64 `yaml:"good" toml:"good" validate:"gtfield=Warning"`
	Warning float64 `yaml:"warning" toml:"warning" validate:"gt=0"`
}

type Layout struct {
	SheetName    string             `yaml:"sheet_name" toml:"sheet_name" validate:"required,max=31"`
	FontFamily   string             `yaml:"font_family" toml:"font_family" validate:"required"`
	NameColumn   string             `yaml:"name_column" toml:"name_column" validate:"required"`
	Columns      []string           `yaml:"columns" toml:"columns" validate:"required,min=2,dive,required"`
	Widths       map[string]float64 `yaml:"widths" toml:"widths" validate:"dive,gt=0"`
	DefaultWidth float64            `yaml:"default_width" toml:"default_width" validate:"gt=0"`
	LevelFills   []string           `yaml:"level_fills" toml:"level_fills" validate:"required,min=1,dive,len=6,hexadecimal"`
	SectionFills []string           `yaml:"section_fills" toml:"section_fills" validate:"required,min=1,dive,len=6,hexadecimal"`
	Colors       Colors             `yaml:"colors" toml:"colors"`
	Thresholds   Thresholds         `yaml:"thresholds" toml:"thresholds"`
	FrozenCols   int                `yaml:"frozen_columns" toml:"frozen_columns" validate:"gte=0"`
	OutlineMax   int                `yaml:"outline_max" toml:"outline_max" validate:"min=1,max=7"`
}

// Default is the standard attainment report look.
func Default() Layout {
	return Layout{
		SheetName:    "Attainment Report",
		FontFamily:   "Calibri",
		NameColumn:   record.ColPersonName,
		Columns:      append([]string(nil), record.DefaultColumns...),
		Widths:       defaultWidths(),
		DefaultWidth: 12,
		LevelFills: []string{
			"D6E4F0", "E8F0E8", "F5E6F0", "FFF3E0", "E0F7FA", "F1F8E9", "FCE4EC",
		},
		SectionFills: []string{
			"F0E6D3", "E3D5C1", "D6C8B3", "CBBDA8", "C1B29D", "B8A894", "AF9E8B",
		},
		Colors: Colors{
			TitleFill:    "0F2B45",
			TitleFont:    "FFFFFF",
			SubtitleFont: "666666",
			HeaderFill:   "1B3A5C",
			HeaderFont:   "FFFFFF",
			SectionFont:  "333333",
			Border:       "B0B0B0",
			Good:         "27AE60",
			Warning:      "F39C12",
			Critical:     "E74C3C",
			Muted:        "999999",
		},
		Thresholds: Thresholds{Good: 1.0, Warning: 0.8},
		FrozenCols: 2,
		OutlineMax: MaxOutlineLevel,
	}
}

func defaultWidths() map[string]float64 {
	w := map[string]float64{
		record.ColEmployeeID: 12, record.ColPersonName: 28, record.ColEmployeeStatus: 14,
		record.ColLevelGrouping: 14, record.ColLevel: 10, record.ColFiscalYear: 10,
		record.ColRegion: 10, record.ColCountry: 14, record.ColBusinessUnit: 13,
		record.ColMeasure: 22, record.ColPlanPeriod: 14, record.ColManager: 26,
		record.ColManager2: 26, record.ColQuotaStart: 15, record.ColQuotaEnd: 15,
		record.ColMeasureWeight: 14,
	}
	for _, p := range []string{"Q1", "Q2", "1H", "Q3", "Q4", "2H"} {
		w[p+" Credits"] = 13
		w[p+" Quota"] = 13
		w[p+" Att"] = 10
	}
	w["Annual Credits"] = 14
	w["Annual Quota"] = 14
	w["Annual Att"] = 11
	return w
}

// Width returns the configured width of column, or the default width.
func (l Layout) Width(column string) float64 {
	if w, ok := l.Widths[column]; ok {
		return w
	}
	return l.DefaultWidth
}

// LevelFill selects the data row fill for a depth.
func (l Layout) LevelFill(depth int) string {
	return l.LevelFills[depth%len(l.LevelFills)]
}

// SectionFill selects the section band fill for a depth.
func (l Layout) SectionFill(depth int) string {
	return l.SectionFills[depth%len(l.SectionFills)]
}

// OutlineLevel caps a group level at the configured maximum.
func (l Layout) OutlineLevel(level int) int {
	if level > l.OutlineMax {
		return l.OutlineMax
	}
	return level
}

func (l Layout) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(l); err != nil {
		return errors.Wrap(ErrInvalidLayout, err.Error())
	}
	for _, c := range l.Columns {
		if c == l.NameColumn {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidLayout, "name column %q is not part of the columns", l.NameColumn)
}

// Load decodes a yaml or toml file over Default. An empty path returns Default.
func Load(path string) (Layout, error) {
	l := Default()
	if strings.TrimSpace(path) == "" {
		return l, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return l, errors.Wrapf(err, "read layout %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &l)
	case ".toml":
		_, err = toml.Decode(string(b), &l)
	default:
		return l, errors.Wrapf(ErrInvalidLayout, "unsupported layout file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return l, errors.Wrapf(err, "decode layout %s", path)
	}
	if err := l.Validate(); err != nil {
		return l, err
	}
	return l, nil
}
