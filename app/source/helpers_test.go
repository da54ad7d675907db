package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

type testSheet struct {
	name string
	rows [][]string
}

func buildWorkbook(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			t.Fatal(err)
		}

		for r, row := range sheet.rows {
			for c, value := range row {
				if value == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatal(err)
				}
				if err := f.SetCellStr(sheet.name, cell, value); err != nil {
					t.Fatal(err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeWorkbookFile(t *testing.T, dir, name string, sheets ...testSheet) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buildWorkbook(t, sheets...), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
