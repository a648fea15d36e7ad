package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/doormap/internal/model"
)

// SheetName is the worksheet the XLSX report is written to.
const SheetName = "doors"

// WriteXLSX writes records to a single-sheet workbook at path.
func WriteXLSX(path string, records []model.AddressRecord) error {
	rows, err := table(records)
	if err != nil {
		return err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// ReadXLSX returns every row of the report sheet as strings.
func ReadXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, ok := f.Sheet[SheetName]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", SheetName)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
