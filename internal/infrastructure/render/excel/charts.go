package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ChartsFileName is the workbook written by the grade stage.
const ChartsFileName = "charts.xlsx"

// BarChart is one labelled series drawn on its own sheet.
type BarChart struct {
	Sheet     string
	Title     string
	ValueName string
	Labels    []string
	Values    []float64
}

// WriteCharts saves one sheet per chart: the data in columns A and B and a
// bar chart next to it. Charts without data are skipped.
func WriteCharts(path string, charts []BarChart) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := boldStyle(f)
	if err != nil {
		return err
	}

	first := f.GetSheetName(0)
	written := 0
	for _, ch := range charts {
		n := min(len(ch.Labels), len(ch.Values))
		if n == 0 {
			continue
		}

		if written == 0 {
			if err := f.SetSheetName(first, ch.Sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(ch.Sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", ch.Sheet, err)
		}
		written++

		if err := writeSeries(f, ch, n, headerStyle); err != nil {
			return err
		}

		ref := fmt.Sprintf("'%s'!", ch.Sheet)
		err := f.AddChart(ch.Sheet, "D2", &excelize.Chart{
			Type: excelize.Bar,
			Series: []excelize.ChartSeries{{
				Name:       ref + "$B$1",
				Categories: fmt.Sprintf("%s$A$2:$A$%d", ref, n+1),
				Values:     fmt.Sprintf("%s$B$2:$B$%d", ref, n+1),
			}},
			Title:     []excelize.RichTextRun{{Text: ch.Title}},
			Dimension: excelize.ChartDimension{Width: 960, Height: 720},
		})
		if err != nil {
			return fmt.Errorf("add chart %s: %w", ch.Sheet, err)
		}
	}

	if written == 0 {
		return fmt.Errorf("no chart data")
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save charts: %w", err)
	}
	return nil
}

func writeSeries(f *excelize.File, ch BarChart, n, headerStyle int) error {
	if err := f.SetSheetRow(ch.Sheet, "A1", &[]any{"label", ch.ValueName}); err != nil {
		return fmt.Errorf("write chart header: %w", err)
	}
	if err := f.SetCellStyle(ch.Sheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("style chart header: %w", err)
	}
	for i := 0; i < n; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ch.Sheet, cell, &[]any{ch.Labels[i], ch.Values[i]}); err != nil {
			return fmt.Errorf("write chart row: %w", err)
		}
	}
	if err := f.SetColWidth(ch.Sheet, "A", "A", 40); err != nil {
		return fmt.Errorf("set width: %w", err)
	}
	return nil
}
