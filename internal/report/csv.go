// AngelaMos | 2026
// csv.go

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

const (
	csvDelimiter  = ';'
	csvDateLayout = "02.01.2006"
	csvTimeLayout = "02.01.2006 15:04"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV renders the report for spreadsheet tools: a BOM, a totals block,
// a blank row, then one row per order.
func WriteCSV(w io.Writer, f *Financial) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = csvDelimiter

	rows := [][]string{
		{"FINANCIAL REPORT", f.GeneratedAt.Format(csvDateLayout)},
		{"Income", "Expenses", "Profit"},
		{money(f.Totals.Income), money(f.Totals.Expenses), money(f.Totals.Profit)},
		{},
		{"TRANSACTION DETAILS"},
		{"ID", "Date", "Student", "Purpose", "Amount", "Status"},
	}

	for _, l := range f.Lines {
		rows = append(rows, []string{
			l.OrderID,
			l.CreatedAt.In(f.GeneratedAt.Location()).Format(csvTimeLayout),
			l.Student,
			l.Purpose,
			money(l.Amount),
			string(l.Status),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
