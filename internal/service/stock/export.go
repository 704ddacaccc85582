package stock

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/luccibyey/atelier/internal/domain/models"
)

const exportSheet = "Stock"

var exportHeaders = []string{
	"Référence", "Matière", "Catégorie", "Emplacement", "Quantité", "Unité",
	"Minimum", "Optimal", "État", "Remplissage (%)",
}

var statusFill = map[models.StockStatus]string{
	models.StockCritical: "#fee2e2",
	models.StockWarning:  "#fef3c7",
	models.StockGood:     "#dcfce7",
	models.StockExcess:   "#dbeafe",
}

// ExportXLSX writes levels as a spreadsheet, one row per material, in the given order.
func ExportXLSX(w io.Writer, levels []Level) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#3b82f6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	statusStyles := make(map[models.StockStatus]int, len(statusFill))
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("status style: %w", err)
		}
		statusStyles[status] = id
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, header); err != nil {
		return err
	}

	for i, l := range levels {
		row := i + 2
		values := []any{
			l.Reference, l.Title, l.CategoryName, l.Location, l.QuantityTotal, l.QuantityType,
			l.LowestQuantityNeeded, l.GoodQuantityNeeded, string(l.Computed), l.Percentage,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
		if style, ok := statusStyles[l.Computed]; ok {
			cell, _ := excelize.CoordinatesToCellName(9, row)
			if err := f.SetCellStyle(exportSheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "J", 16); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
