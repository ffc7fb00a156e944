// Package export writes a finished incident report to a spreadsheet ticket.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"incident-report-go/internal/types"
)

const (
	SheetName     = "Incident"
	StatusPending = "Pending"
)

// Columns follow the ticket layout used by the complaints desk.
var Columns = []string{"Source", "Created At", "PNR", "Issue", "Issue Type", "Location", "Urgency", "Status", "Sentiment", "Suggestion"}

// Row is one exported ticket.
type Row struct {
	Source    string
	CreatedAt time.Time
	Report    types.IncidentReport
	Status    string
}

// WriteXLSX overwrites path with a single-sheet workbook holding one ticket row.
func WriteXLSX(path string, row Row) error {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("export path must end in .xlsx: %s", path)
	}
	if row.Status == "" {
		row.Status = StatusPending
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	r := row.Report.Normalize()
	values := []interface{}{
		filepath.Base(row.Source),
		row.CreatedAt.UTC().Format(time.RFC3339),
		r.PNR, r.Issue, r.IssueType, r.Location, r.Urgency,
		row.Status,
		r.Sentiment, r.Suggestion,
	}
	if err := f.SetSheetRow(SheetName, "A2", &values); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetColWidth(SheetName, "D", "D", 50); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "J", "J", 60); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
