package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetAvailable   = "Available"
	sheetUnavailable = "Unavailable"

	headerFillColor = "D3D3D3"
	labelFillColor  = "E6E6FA"
)

// ArtifactName derives the report filename from the extract it came from:
// {store_abbr}_{brand_key}_{MM-DD-YYYY}.xlsx, where the store abbreviation is
// the last underscore-separated token of the source basename.
func ArtifactName(sourcePath, brandKey string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	abbr := "UNK"
	if parts := strings.Split(base, "_"); len(parts) > 1 {
		abbr = parts[len(parts)-1]
	}
	return fmt.Sprintf("%s_%s_%s.xlsx", abbr, brandKey, at.Format("01-02-2006"))
}

// WriteArtifact renders one brand report to disk. The Available sheet is
// always present; Unavailable only when the brand has such rows. Both sheets
// get a frozen styled header, fitted columns and a label row before every
// contiguous run of a category value.
func WriteArtifact(r *BrandReport, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{labelFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", err
	}

	availColumns := r.Columns
	if r.StrainTyped {
		availColumns = append(append([]string{}, r.Columns...), strainColumn)
	}

	if err := f.SetSheetName("Sheet1", sheetAvailable); err != nil {
		return "", err
	}
	if err := writeSheet(f, sheetAvailable, availColumns, r.Available, headerStyle, labelStyle); err != nil {
		return "", fmt.Errorf("write %s sheet: %w", sheetAvailable, err)
	}

	if len(r.Unavailable) > 0 {
		if _, err := f.NewSheet(sheetUnavailable); err != nil {
			return "", err
		}
		if err := writeSheet(f, sheetUnavailable, r.Columns, r.Unavailable, headerStyle, labelStyle); err != nil {
			return "", fmt.Errorf("write %s sheet: %w", sheetUnavailable, err)
		}
	}

	path := filepath.Join(outDir, ArtifactName(r.SourceFile, r.BrandKey, r.GeneratedAt))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save artifact: %w", err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows []Row, headerStyle, labelStyle int) error {
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	// Column widths come from the header and data cells only; label rows are
	// inserted afterwards and do not stretch their column.
	for i, c := range columns {
		width := len(c)
		for _, row := range rows {
			if l := len(cellText(row, c)); l > width {
				width = l
			}
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(width+3)); err != nil {
			return err
		}
	}

	catIdx := -1
	for i, c := range columns {
		if strings.EqualFold(c, "Category") {
			catIdx = i
			break
		}
	}

	rowNum := 2
	prev := ""
	started := false
	for _, row := range rows {
		if catIdx >= 0 && (!started || row.Category != prev) {
			cell := "A" + strconv.Itoa(rowNum)
			if err := f.SetCellValue(sheet, cell, row.Category); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, labelStyle); err != nil {
				return err
			}
			prev = row.Category
			started = true
			rowNum++
		}
		cells := make([]interface{}, len(columns))
		for i, c := range columns {
			cells[i] = cellValue(row, c)
		}
		if err := f.SetSheetRow(sheet, "A"+strconv.Itoa(rowNum), &cells); err != nil {
			return err
		}
		rowNum++
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func cellValue(row Row, column string) interface{} {
	if column == "Available" {
		return row.Available
	}
	return cellText(row, column)
}

func cellText(row Row, column string) string {
	switch column {
	case "Available":
		return strconv.Itoa(row.Available)
	case "Product":
		return row.Product
	case "Brand":
		return row.Brand
	case "Category":
		return row.Category
	case "Cost":
		return row.Cost
	case strainColumn:
		return row.StrainType
	}
	return ""
}
