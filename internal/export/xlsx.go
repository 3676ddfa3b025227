package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is used when WriteXLSX gets no sheet name.
const DefaultSheetName = "Receipts"

// WriteXLSX writes rows as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, rows []Row, sheetName string) error {
	const op = "WriteXLSX"

	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("%s: naming sheet: %w", op, err)
	}

	headers := make([]any, len(Headers))
	for i, h := range Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("%s: writing header: %w", op, err)
	}

	for i, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		values := row.Values()
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return fmt.Errorf("%s: writing row %d: %w", op, i+2, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E5E5E5"}},
	})
	if err != nil {
		return fmt.Errorf("%s: creating header style: %w", op, err)
	}
	lastColumn, err := excelize.ColumnNumberToName(len(Headers))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastColumn+"1", style); err != nil {
		return fmt.Errorf("%s: styling header: %w", op, err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
