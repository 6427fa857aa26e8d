package evaluation

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	detailsSheet = "Details"
)

// WriteXLSX exports the report as a workbook with a summary sheet and one row per sample.
func WriteXLSX(r *Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	summary := [][]any{
		{"Dataset", r.Dataset},
		{"Samples evaluated", r.SamplesEvaluated},
		{"Overall accuracy", r.OverallAccuracy},
		{"Median accuracy", r.MedianAccuracy},
		{"Min accuracy", r.MinAccuracy},
		{"Max accuracy", r.MaxAccuracy},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if _, err := f.NewSheet(detailsSheet); err != nil {
		return fmt.Errorf("create details sheet: %w", err)
	}
	header := []any{"File", "Reference", "Transcript", "Confidence", "Accuracy", "Error"}
	if err := f.SetSheetRow(detailsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, d := range r.Details {
		var conf any
		if d.Confidence != nil {
			conf = *d.Confidence
		}
		row := []any{d.File, d.Reference, d.Transcript, conf, d.Accuracy, d.Error}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(detailsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
