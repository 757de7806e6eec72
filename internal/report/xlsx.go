package report

import (
	"fmt"
	"io"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the recommendation rows.
const SheetName = "Recommendations"

// WriteSpreadsheet writes the same rows as WriteRecommendations into a single
// XLSX worksheet.
func WriteSpreadsheet(w io.Writer, views []domain.RecommendationView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, header); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for i, v := range views {
		if err := setRow(f, i+2, row(v)); err != nil {
			return fmt.Errorf("write recommendation %d: %w", v.ID, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return f.Write(w)
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(SheetName, cell, &cells)
}
