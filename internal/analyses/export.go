package analyses

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	exportSheet       = "Analyses"
	exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFileName    = "analyses.xlsx"
)

var exportHeaders = []string{"Resume", "ATS Score", "JD Match", "Created At", "Analysis ID"}

var exportColumnWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "A", 32},
	{"B", "C", 12},
	{"D", "D", 22},
	{"E", "E", 38},
}

// ExportXLSX renders dashboard rows as a single-sheet workbook.
func ExportXLSX(rows []Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, w := range exportColumnWidths {
		if err := f.SetColWidth(exportSheet, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("column width %s: %w", w.from, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("header style %s: %w", cell, err)
		}
	}

	for i, row := range rows {
		r := i + 2
		values := map[string]any{
			"A": row.ResumeName,
			"D": row.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			"E": row.ID,
		}
		if row.ATSScore != nil {
			values["B"] = *row.ATSScore
		}
		if row.JDMatchScore != nil {
			values["C"] = *row.JDMatchScore
		}
		for col, v := range values {
			cell := fmt.Sprintf("%s%d", col, r)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
