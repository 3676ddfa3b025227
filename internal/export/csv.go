package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes a header line followed by rows.
func WriteCSV(w io.Writer, rows []Row) error {
	const op = "WriteCSV"

	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("%s: writing header: %w", op, err)
	}
	for i, row := range rows {
		if err := cw.Write(row.Strings()); err != nil {
			return fmt.Errorf("%s: writing row %d: %w", op, i+2, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
