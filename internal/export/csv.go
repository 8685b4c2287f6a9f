// Package export serialises the combined open and done view.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/codr1/nailbook/internal/slots"
)

var Header = []string{"status", "date", "time", "name", "done_at"}

// WriteCSV writes rows in the order given, one line per row, after a header.
func WriteCSV(w io.Writer, rows []slots.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		doneAt := ""
		if row.DoneAt != nil {
			doneAt = row.DoneAt.UTC().Format(time.RFC3339)
		}
		record := []string{string(row.Status), row.Date.String(), row.Time.String(), row.Name, doneAt}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename is the suggested download name for an export taken at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("agendamentos_%s.csv", now.Format("20060102"))
}
