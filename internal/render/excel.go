package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

func renderExcel(doc *document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("creating title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	row := 1
	setCell(f, sheet, 1, row, doc.Title)
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetCellStyle(sheet, cell, cell, titleStyle)
	row++

	setCell(f, sheet, 1, row, fmt.Sprintf("%s - generated %s", doc.TypeLabel, doc.GeneratedAt.UTC().Format("Jan 2, 2006 15:04 MST")))
	row += 2

	if len(doc.Summary) > 0 {
		for _, item := range doc.Summary {
			setCell(f, sheet, 1, row, item.Label)
			setCell(f, sheet, 2, row, item.Value)
			row++
		}
		row++
	}

	if len(doc.Headers) > 0 {
		for col, header := range doc.Headers {
			setCell(f, sheet, col+1, row, header)
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(doc.Headers), row)
		_ = f.SetCellStyle(sheet, first, last, headerStyle)
		row++

		for _, cells := range doc.Rows {
			for col, value := range cells {
				setCell(f, sheet, col+1, row, value)
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing spreadsheet: %w", err)
	}

	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value string) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	_ = f.SetCellValue(sheet, cell, value)
}
