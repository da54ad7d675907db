package source

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/lysyi3m/regcheck/app/registry"
)

// Workbook gives grid access to the sheets of an xlsx document.
type Workbook struct {
	file *excelize.File
}

func OpenWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

func OpenWorkbookFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{file: f}, nil
}

func OpenWorkbookBytes(data []byte) (*Workbook, error) {
	return OpenWorkbook(bytes.NewReader(data))
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Sheet returns the raw cell values of the named sheet. Date cells come
// back as Excel serials, not in their display format. An empty name selects
// the first sheet.
func (w *Workbook) Sheet(name string) (registry.Grid, error) {
	if name == "" {
		name = w.file.GetSheetName(0)
		if name == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if !w.HasSheet(name) {
		return nil, fmt.Errorf("sheet '%s' not found", name)
	}

	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", name, err)
	}
	return registry.Grid(rows), nil
}

// MFOSheets reads the active and excluded sheets of the MFO registry.
// Individual missing sheets are tolerated; a workbook with none of them is
// not an MFO registry.
func (w *Workbook) MFOSheets() (registry.MFOSheets, error) {
	var sheets registry.MFOSheets
	found := 0

	for _, name := range registry.MFOActiveSheets {
		if !w.HasSheet(name) {
			continue
		}
		grid, err := w.Sheet(name)
		if err != nil {
			return sheets, err
		}
		sheets.Active = append(sheets.Active, grid)
		found++
	}

	if w.HasSheet(registry.MFOExcludedSheet) {
		grid, err := w.Sheet(registry.MFOExcludedSheet)
		if err != nil {
			return sheets, err
		}
		sheets.Excluded = grid
		found++
	}

	if found == 0 {
		return sheets, fmt.Errorf("no MFO registry sheets found")
	}
	return sheets, nil
}

// ReadGrid opens an xlsx document and returns one sheet of it.
func ReadGrid(r io.Reader, sheet string) (registry.Grid, error) {
	wb, err := OpenWorkbook(r)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return wb.Sheet(sheet)
}

// ReadLocalBook reads the configured sheet of a local book file.
func ReadLocalBook(local ConfigLocal) (registry.Grid, error) {
	wb, err := OpenWorkbookFile(local.Path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return wb.Sheet(local.Sheet)
}
