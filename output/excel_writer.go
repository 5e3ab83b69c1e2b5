package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"audiogest/record"
	"audiogest/storage"
)

type ExcelWriter struct {
	Domain record.Domain
}

func (w *ExcelWriter) Write(path string, documents []storage.Document) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	columns := columnsFor(w.Domain)

	for col, column := range columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, column); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, document := range documents {
		row := i + 2
		for col, column := range columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, cellValue(document.Fields, column)); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}
