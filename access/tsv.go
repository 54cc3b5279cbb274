package access

import (
	"encoding/csv"
	"fmt"
	"io"

	"google.golang.org/api/sheets/v4"
)

// MakeTSV writes a worksheet as TSV. Rows are padded to the width of the header row and blank
// rows are dropped.
func MakeTSV(f io.Writer, data *sheets.ValueRange) error {
	if data == nil || len(data.Values) == 0 {
		return fmt.Errorf("Empty sheet")
	}

	// ... header
	row := data.Values[0]
	header := make([]string, len(row))
	for i := range row {
		header[i] = clean(cell(row, i))
	}

	if len(header) == 0 {
		return fmt.Errorf("Missing/invalid header row")
	}

	// ... records
	records := [][]string{}
	for _, row := range data.Values[1:] {
		record := make([]string, len(header))
		blank := true
		for i := range record {
			if record[i] = clean(cell(row, i)); record[i] != "" {
				blank = false
			}
		}

		if !blank {
			records = append(records, record)
		}
	}

	// ... write to file
	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		return err
	}

	if err := w.WriteAll(records); err != nil {
		return err
	}

	return w.Error()
}
