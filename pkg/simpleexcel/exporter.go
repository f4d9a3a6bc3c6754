// Package simpleexcel exports slices of structs or maps as section based Excel sheets or CSV.
// Layout comes from code (AddSheet/AddSection) or from a YAML template with data bound by section id.
package simpleexcel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Constants & Types
// =============================================================================

const (
	SectionTypeFull      = "full"   // title, header and data
	SectionTypeTitleOnly = "title"  // only the title row
	SectionTypeHidden    = "hidden" // rendered, then rows hidden
	DefaultLockedColor   = "E0E0E0"
	defaultColumnWidth   = 20
)

// Formatter converts a raw cell value before it is written.
type Formatter func(interface{}) interface{}

// DataExporter is the main entry point for exporting data.
type DataExporter struct {
	// data holds data bound to section ids (YAML flow)
	data       map[string]interface{}
	sheets     []*SheetBuilder
	formatters map[string]Formatter
}

// ReportTemplate is the YAML layout.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate is one sheet of the YAML layout.
type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig is a block of rows stacked vertically in a sheet.
type SectionConfig struct {
	ID           string         `yaml:"id"`
	Title        string         `yaml:"title"`
	Data         interface{}    `yaml:"-"`
	Type         string         `yaml:"type"`
	Locked       bool           `yaml:"locked"`
	ShowHeader   bool           `yaml:"show_header"`
	HasFilter    bool           `yaml:"has_filter"`
	FreezeHeader bool           `yaml:"freeze_header"`
	TitleStyle   *StyleTemplate `yaml:"title_style"`
	HeaderStyle  *StyleTemplate `yaml:"header_style"`
	DataStyle    *StyleTemplate `yaml:"data_style"`
	Columns      []ColumnConfig `yaml:"columns"`
	// AutoColumns appends fields found in the data that no column names.
	AutoColumns bool `yaml:"auto_columns"`
}

// ColumnConfig defines a column in a section.
type ColumnConfig struct {
	FieldName     string    `yaml:"field_name"` // struct field name or map key
	Header        string    `yaml:"header"`
	Width         float64   `yaml:"width"`
	Locked        *bool     `yaml:"locked"`
	Formatter     Formatter `yaml:"-"`
	FormatterName string    `yaml:"formatter"`
}

// IsLocked returns the column override or the section default.
func (c *ColumnConfig) IsLocked(sectionLocked bool) bool {
	if c.Locked != nil {
		return *c.Locked
	}
	return sectionLocked
}

// StyleTemplate defines basic styling.
type StyleTemplate struct {
	Font      *FontTemplate      `yaml:"font"`
	Fill      *FillTemplate      `yaml:"fill"`
	Alignment *AlignmentTemplate `yaml:"alignment"`
	Locked    *bool              `yaml:"locked"`
}

type AlignmentTemplate struct {
	Horizontal string `yaml:"horizontal"`
	Vertical   string `yaml:"vertical"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"`
}

type FillTemplate struct {
	Color string `yaml:"color"`
}

// =============================================================================
// Constructors
// =============================================================================

func NewDataExporter() *DataExporter {
	return &DataExporter{
		data:       make(map[string]interface{}),
		formatters: make(map[string]Formatter),
	}
}

// NewDataExporterFromYamlConfig builds the sheets of a YAML template.
func NewDataExporterFromYamlConfig(yamlConfig string) (*DataExporter, error) {
	if strings.TrimSpace(yamlConfig) == "" {
		return nil, fmt.Errorf("yaml config is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.Unmarshal([]byte(yamlConfig), &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	exporter := NewDataExporter()
	for i := range tmpl.Sheets {
		sb := exporter.AddSheet(tmpl.Sheets[i].Name)
		for j := range tmpl.Sheets[i].Sections {
			sb.AddSection(&tmpl.Sheets[i].Sections[j])
		}
	}
	return exporter, nil
}

// =============================================================================
// Fluent API
// =============================================================================

// AddSheet starts a new sheet builder.
func (e *DataExporter) AddSheet(name string) *SheetBuilder {
	sb := &SheetBuilder{exporter: e, name: name}
	e.sheets = append(e.sheets, sb)
	return sb
}

// BindSectionData binds data to a section id.
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// RegisterFormatter makes f available to columns by name.
func (e *DataExporter) RegisterFormatter(name string, f Formatter) *DataExporter {
	e.formatters[name] = f
	return e
}

// GetSheet returns a SheetBuilder by name, or nil if not found.
func (e *DataExporter) GetSheet(name string) *SheetBuilder {
	for _, sheet := range e.sheets {
		if sheet.name == name {
			return sheet
		}
	}
	return nil
}

// SheetBuilder collects the sections of one sheet.
type SheetBuilder struct {
	exporter *DataExporter
	name     string
	sections []*SectionConfig
}

func (sb *SheetBuilder) AddSection(config *SectionConfig) *SheetBuilder {
	sb.sections = append(sb.sections, config)
	return sb
}

func (sb *SheetBuilder) Build() *DataExporter {
	return sb.exporter
}

// bind resolves late bound data and the effective columns of every section.
func (e *DataExporter) bind(sections []*SectionConfig) {
	for _, sec := range sections {
		if sec.ID != "" {
			if data, ok := e.data[sec.ID]; ok {
				sec.Data = data
			}
		}
		if sec.AutoColumns || len(sec.Columns) == 0 {
			sec.Columns = mergeColumns(sec.Data, sec.Columns)
		}
	}
}

// cellValue extracts and formats one value.
func (e *DataExporter) cellValue(item reflect.Value, col ColumnConfig) interface{} {
	val := extractValue(item, col.FieldName)
	if col.Formatter != nil {
		return col.Formatter(val)
	}
	if col.FormatterName != "" {
		if fn, ok := e.formatters[col.FormatterName]; ok {
			return fn(val)
		}
	}
	return val
}

// =============================================================================
// Output
// =============================================================================

// BuildExcel renders every sheet into a new workbook.
func (e *DataExporter) BuildExcel() (*excelize.File, error) {
	if len(e.sheets) == 0 {
		return nil, fmt.Errorf("no sheets to export")
	}
	f := excelize.NewFile()
	for i, sb := range e.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sb.name); err != nil {
				return nil, err
			}
		} else if idx, _ := f.GetSheetIndex(sb.name); idx == -1 {
			if _, err := f.NewSheet(sb.name); err != nil {
				return nil, err
			}
		}
		e.bind(sb.sections)
		if err := e.renderSections(f, sb.name, sb.sections); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// ToBytes exports the workbook to memory.
func (e *DataExporter) ToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := e.ToWriter(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToWriter streams the workbook to w.
func (e *DataExporter) ToWriter(w io.Writer) error {
	f, err := e.BuildExcel()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// ToCSV writes the first sheet as CSV. Hidden sections are skipped and sections are
// separated by an empty line.
func (e *DataExporter) ToCSV(w io.Writer) error {
	if len(e.sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}
	csvWriter := csv.NewWriter(w)

	sections := e.sheets[0].sections
	e.bind(sections)
	for n, sec := range sections {
		if sec.Type == SectionTypeHidden {
			continue
		}
		if n > 0 {
			if err := csvWriter.Write([]string{""}); err != nil {
				return err
			}
		}
		if sec.Title != "" {
			if err := csvWriter.Write([]string{sec.Title}); err != nil {
				return err
			}
		}
		if sec.Type == SectionTypeTitleOnly {
			continue
		}
		if sec.ShowHeader && len(sec.Columns) > 0 {
			header := make([]string, len(sec.Columns))
			for i, col := range sec.Columns {
				header[i] = col.Header
			}
			if err := csvWriter.Write(header); err != nil {
				return err
			}
		}

		v := sliceValue(sec.Data)
		for i := 0; i < dataLength(sec.Data); i++ {
			item := v.Index(i)
			row := make([]string, len(sec.Columns))
			for j, col := range sec.Columns {
				row[j] = fmt.Sprintf("%v", e.cellValue(item, col))
			}
			if err := csvWriter.Write(row); err != nil {
				return err
			}
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// =============================================================================
// Rendering Logic
// =============================================================================

func (e *DataExporter) renderSections(f *excelize.File, sheet string, sections []*SectionConfig) error {
	hasLockedCells := false
	for _, sec := range sections {
		for _, col := range sec.Columns {
			if col.IsLocked(sec.Locked) {
				hasLockedCells = true
			}
		}
	}
	if hasLockedCells {
		unlocked := false
		styleID, err := createStyle(f, &StyleTemplate{Locked: &unlocked})
		if err != nil {
			return err
		}
		if err := f.SetColStyle(sheet, "A:XFD", styleID); err != nil {
			return err
		}
	}

	row := 1
	var hiddenRows []int
	frozen := false
	for _, sec := range sections {
		start := row
		width := len(sec.Columns)
		if width == 0 {
			width = 1
		}

		if sec.Title != "" {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetCellValue(sheet, cell, sec.Title); err != nil {
				return err
			}
			style := resolveStyle(sec.TitleStyle, &StyleTemplate{
				Font:      &FontTemplate{Bold: true},
				Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "top"},
			}, sec.Locked)
			styleID, err := createStyle(f, style)
			if err != nil {
				return err
			}
			end := cell
			if width > 1 {
				end, _ = excelize.CoordinatesToCellName(width, row)
				if err := f.MergeCell(sheet, cell, end); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(sheet, cell, end, styleID); err != nil {
				return err
			}
			row++
		}
		if sec.Type == SectionTypeTitleOnly {
			continue
		}

		headerRow := 0
		if sec.ShowHeader {
			headerRow = row
			for i, col := range sec.Columns {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
					return err
				}
				style := resolveStyle(sec.HeaderStyle, &StyleTemplate{
					Font:      &FontTemplate{Bold: true},
					Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "top"},
				}, col.IsLocked(sec.Locked))
				styleID, err := createStyle(f, style)
				if err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
					return err
				}
				w := col.Width
				if w <= 0 {
					w = defaultColumnWidth
				}
				colName, _ := excelize.ColumnNumberToName(i + 1)
				if err := f.SetColWidth(sheet, colName, colName, w); err != nil {
					return err
				}
			}
			row++
		}

		// one style per column; cells of a column share it
		styles := make([]int, len(sec.Columns))
		for i, col := range sec.Columns {
			var def *StyleTemplate
			if sec.Type == SectionTypeHidden {
				def = &StyleTemplate{Fill: &FillTemplate{Color: "FFFF00"}}
			}
			id, err := createStyle(f, resolveStyle(sec.DataStyle, def, col.IsLocked(sec.Locked)))
			if err != nil {
				return err
			}
			styles[i] = id
		}

		v := sliceValue(sec.Data)
		n := dataLength(sec.Data)
		for i := 0; i < n; i++ {
			item := v.Index(i)
			for j, col := range sec.Columns {
				cell, _ := excelize.CoordinatesToCellName(j+1, row)
				if err := f.SetCellValue(sheet, cell, e.cellValue(item, col)); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styles[j]); err != nil {
					return err
				}
			}
			row++
		}

		if sec.HasFilter && headerRow > 0 && len(sec.Columns) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, headerRow)
			last, _ := excelize.CoordinatesToCellName(len(sec.Columns), row-1)
			if err := f.AutoFilter(sheet, first+":"+last, nil); err != nil {
				return err
			}
		}
		if sec.FreezeHeader && headerRow > 0 && !frozen {
			frozen = true
			topLeft, _ := excelize.CoordinatesToCellName(1, headerRow+1)
			if err := f.SetPanes(sheet, &excelize.Panes{
				Freeze:      true,
				YSplit:      headerRow,
				TopLeftCell: topLeft,
				ActivePane:  "bottomLeft",
			}); err != nil {
				return err
			}
		}
		if sec.Type == SectionTypeHidden {
			for r := start; r < row; r++ {
				hiddenRows = append(hiddenRows, r)
			}
		}
	}

	for _, r := range hiddenRows {
		if err := f.SetRowVisible(sheet, r, false); err != nil {
			return err
		}
	}

	if hasLockedCells {
		return f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
			FormatColumns:       true,
			FormatRows:          true,
			AutoFilter:          true,
			SelectLockedCells:   true,
			SelectUnlockedCells: true,
		})
	}
	return nil
}

// resolveStyle merges base over defaultStyle and grays locked cells without a fill.
func resolveStyle(base, defaultStyle *StyleTemplate, locked bool) *StyleTemplate {
	s := &StyleTemplate{}
	if base != nil {
		*s = *base
	}
	if defaultStyle != nil {
		if s.Font == nil {
			s.Font = defaultStyle.Font
		}
		if s.Fill == nil {
			s.Fill = defaultStyle.Fill
		}
		if s.Alignment == nil {
			s.Alignment = defaultStyle.Alignment
		}
	}
	s.Locked = &locked
	if locked && s.Fill == nil {
		s.Fill = &FillTemplate{Color: DefaultLockedColor}
	}
	return s
}

func createStyle(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Alignment != nil {
		style.Alignment = &excelize.Alignment{
			Horizontal: tmpl.Alignment.Horizontal,
			Vertical:   tmpl.Alignment.Vertical,
		}
	}
	if tmpl.Locked != nil {
		style.Protection = &excelize.Protection{Locked: *tmpl.Locked}
	}
	return f.NewStyle(style)
}
