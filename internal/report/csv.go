package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV exports one row per outcome, in completion order, with the
// columns url,status,response_time,error.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"url", "status", "response_time", "error"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range r.Outcomes {
		status := ""
		if o.Status != 0 {
			status = strconv.Itoa(o.Status)
		}
		row := []string{
			o.URL,
			status,
			fmt.Sprintf("%.3f", o.Elapsed.Seconds()),
			o.Err,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// SaveCSV writes the CSV export to path, creating or truncating the file.
func SaveCSV(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return WriteCSV(f, r)
}
