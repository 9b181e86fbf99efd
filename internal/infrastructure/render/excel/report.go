// Package excel writes the violations report and the grading charts as
// xlsx workbooks.
package excel

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	// ReportFileName is the workbook written by the report stage.
	ReportFileName = "funky_report.xlsx"
	// ReportSheet holds one row per reported violation.
	ReportSheet = "Report"

	maxColWidth = 100
)

// ReportHeaders are the report columns in order.
var ReportHeaders = []string{
	"page name",
	"page link",
	"ads link",
	"ad spend",
	"ad impressions",
	"ad start date",
	"ad end date",
	"summary",
}

// ReportRow is one violation joined with its ad metadata.
type ReportRow struct {
	PageName    string
	PageLink    string
	AdsLink     string
	Spend       string
	Impressions string
	StartDate   string
	EndDate     string
	Summary     string
}

func (r ReportRow) cells() []string {
	return []string{r.PageName, r.PageLink, r.AdsLink, r.Spend, r.Impressions, r.StartDate, r.EndDate, r.Summary}
}

// WriteReport saves rows to path under a bold header. Each column is as wide
// as its longest value plus two, capped at 100.
func WriteReport(path string, rows []ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ReportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := boldStyle(f)
	if err != nil {
		return err
	}

	widths := make([]int, len(ReportHeaders))
	for i, h := range ReportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ReportSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetCellStyle(ReportSheet, "A1", lastHeaderCell(), headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, row := range rows {
		for c, v := range row.cells() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(ReportSheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", r+2, err)
			}
			if n := utf8.RuneCountInString(v); n > widths[c] {
				widths[c] = n
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ReportSheet, col, col, float64(min(w+2, maxColWidth))); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func boldStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}
	return style, nil
}

func lastHeaderCell() string {
	cell, _ := excelize.CoordinatesToCellName(len(ReportHeaders), 1)
	return cell
}
