package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/lysyi3m/regcheck/app/registry"
)

const (
	maxColumnWidth = 60
	maxSheetName   = 31
	fontName       = "Bahnschrift"
)

var columns = map[registry.Domain][]string{
	registry.DomainWatchlist: {"ФИО", "Дата рождения", "Статус", "Последняя дата", "Изменение"},
	registry.DomainMFO:       {"Наименование", "ИНН", "Статус"},
	registry.DomainBanks:     {"ОГРН", "Наименование", "Статус лицензии"},
	registry.DomainDiff:      {"ФИО", "Дата рождения", "Изменение"},
}

var sheetNames = map[registry.Domain]string{
	registry.DomainWatchlist: "Перечень",
	registry.DomainMFO:       "МФО",
	registry.DomainBanks:     "Банки",
	registry.DomainDiff:      "Сравнение",
}

// LoanColumns heads the loan cross-check export.
var LoanColumns = []string{"ID MPL", "ФИО", "Дата рождения", "Дата сделки"}

// Columns returns the output header of a domain.
func Columns(domain registry.Domain) []string {
	return append([]string(nil), columns[domain]...)
}

type palette struct {
	fill string
	font string
}

var (
	headerPalette = palette{fill: "E2EAF3", font: "6A8090"}
	redPalette    = palette{fill: "F0D8D8", font: "A03030"}
	greenPalette  = palette{fill: "D0EEDD", font: "2A7A48"}
	purplePalette = palette{fill: "E8E0F0", font: "604090"}
	yellowPalette = palette{fill: "F0EAD0", font: "806020"}
	evenPalette   = palette{fill: "EEF2F7", font: "2A3A46"}
	oddPalette    = palette{fill: "F8FAFC", font: "2A3A46"}
)

func statusPalette(status registry.Status) (palette, bool) {
	switch status {
	case registry.StatusExcluded, registry.StatusRevoked, registry.StatusOnList, registry.StatusAdded:
		return redPalette, true
	case registry.StatusActive, registry.StatusNotOnList:
		return greenPalette, true
	case registry.StatusLiquidated:
		return purplePalette, true
	case registry.StatusRestricted, registry.StatusCancelled, registry.StatusRemoved:
		return yellowPalette, true
	}
	return palette{}, false
}

type styler struct {
	file   *excelize.File
	styles map[palette]int
}

func (s *styler) style(p palette, header bool) (int, error) {
	if id, ok := s.styles[p]; ok {
		return id, nil
	}

	id, err := s.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: fontName, Bold: header, Size: 11, Color: p.font},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{p.fill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    []excelize.Border{{Type: "bottom", Color: "C4D4E4", Style: 1}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create style: %w", err)
	}
	s.styles[p] = id
	return id, nil
}

// Write serializes a report as a styled workbook: tinted header, rows
// colored by status tag, frozen header row and fitted column widths.
func Write(w io.Writer, report *registry.Report) error {
	rows := make([][]string, 0, len(report.Rows))
	statuses := make([]registry.Status, 0, len(report.Rows))
	for _, r := range report.Rows {
		rows = append(rows, r.Values)
		statuses = append(statuses, r.Status)
	}

	sheet := sheetNames[report.Domain]
	if sheet == "" {
		sheet = string(report.Domain)
	}
	return WriteTable(w, sheet, Columns(report.Domain), rows, statuses)
}

// WriteLoans serializes loan cross-check matches.
func WriteLoans(w io.Writer, matches []registry.LoanMatch) error {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{m.ID, m.Name, m.BirthDate, m.DealDate})
	}
	return WriteTable(w, "Сделки", LoanColumns, rows, nil)
}

// WriteTable writes one styled sheet. statuses is parallel to rows and may
// be nil, in which case rows alternate the neutral fills.
func WriteTable(w io.Writer, sheet string, header []string, rows [][]string, statuses []registry.Status) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = truncateRunes(sheet, maxSheetName)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	st := &styler{file: f, styles: make(map[palette]int)}
	widths := make([]int, len(header))

	headerStyle, err := st.style(headerPalette, true)
	if err != nil {
		return err
	}
	for i, title := range header {
		if err := setCell(f, sheet, i+1, 1, title, headerStyle); err != nil {
			return err
		}
		widths[i] = utf8.RuneCountInString(title)
	}
	if err := f.SetRowHeight(sheet, 1, 22); err != nil {
		return fmt.Errorf("failed to set header height: %w", err)
	}

	for ri, values := range rows {
		rowNum := ri + 2

		p, ok := palette{}, false
		if ri < len(statuses) {
			p, ok = statusPalette(statuses[ri])
		}
		if !ok {
			p = oddPalette
			if rowNum%2 == 0 {
				p = evenPalette
			}
		}
		rowStyle, err := st.style(p, false)
		if err != nil {
			return err
		}

		for ci := range header {
			value := ""
			if ci < len(values) {
				value = values[ci]
			}
			if err := setCell(f, sheet, ci+1, rowNum, value, rowStyle); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(value); n > widths[ci] {
				widths[ci] = n
			}
		}
		if err := f.SetRowHeight(sheet, rowNum, 20); err != nil {
			return fmt.Errorf("failed to set row height: %w", err)
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(width+4, maxColumnWidth))); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value string, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStr(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
		return fmt.Errorf("failed to style cell %s: %w", cell, err)
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
