// Package export writes a user's transactions to an .xlsx workbook and
// uploads finished workbooks to a storage bucket.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/finance-chat/internal/advice"
	"github.com/dvloznov/finance-chat/internal/domain"
)

const (
	SheetName   = "Transactions"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	headers      = []string{"Date", "Time", "Type", "Amount", "Category", "Description", "Balance Impact"}
	columnWidths = []float64{12, 12, 10, 12, 15, 30, 15}
)

// Filename returns the default download name for an export made at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("ClearBudget_Transactions_%s.xlsx", t.Format("2006-01-02_15-04-05"))
}

// WriteWorkbook writes one row per record followed by the SUMMARY block.
// Dates and times are rendered in loc.
func WriteWorkbook(w io.Writer, recs []domain.TransactionRecord, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("WriteWorkbook: renaming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("WriteWorkbook: header style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("WriteWorkbook: bold style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return fmt.Errorf("WriteWorkbook: header %s: %w", header, err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, columnWidths[i]); err != nil {
			return fmt.Errorf("WriteWorkbook: column width: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "G1", headerStyle); err != nil {
		return fmt.Errorf("WriteWorkbook: styling header: %w", err)
	}

	for i, rec := range recs {
		if err := setRow(f, i+2, transactionRow(rec, loc)); err != nil {
			return fmt.Errorf("WriteWorkbook: row %d: %w", i+2, err)
		}
	}

	s := advice.Summarize(recs)
	start := len(recs) + 3 // blank spacer row after the data
	summary := [][]any{
		{"SUMMARY"},
		{"Total Income", "", "", s.TotalIncome, "", "", "+₹" + advice.FormatINR(s.TotalIncome)},
		{"Total Expenses", "", "", s.TotalExpenses, "", "", "-₹" + advice.FormatINR(s.TotalExpenses)},
		{"Net Balance", "", "", s.Balance, "", "", signedRupees(s.Balance)},
	}
	for i, row := range summary {
		n := start + i
		if err := setRow(f, n, row); err != nil {
			return fmt.Errorf("WriteWorkbook: summary row %d: %w", n, err)
		}
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", n), fmt.Sprintf("G%d", n), boldStyle); err != nil {
			return fmt.Errorf("WriteWorkbook: styling summary: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteWorkbook: writing: %w", err)
	}
	return nil
}

func transactionRow(rec domain.TransactionRecord, loc *time.Location) []any {
	created := rec.CreatedAt.In(loc)
	description := rec.Description
	if strings.TrimSpace(description) == "" {
		description = "No description"
	}
	impact := "-₹" + advice.FormatINR(rec.Amount)
	if rec.Type == domain.Income {
		impact = "+₹" + advice.FormatINR(rec.Amount)
	}
	return []any{
		created.Format("02/01/2006"),
		created.Format("03:04:05 PM"),
		capitalize(string(rec.Type)),
		rec.Amount,
		capitalize(string(rec.Category)),
		description,
		impact,
	}
}

func setRow(f *excelize.File, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &values)
}

func signedRupees(v float64) string {
	if v >= 0 {
		return "+₹" + advice.FormatINR(v)
	}
	return "-₹" + advice.FormatINR(math.Abs(v))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
