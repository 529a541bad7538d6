package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"courseflags/internal"
)

// ExportTableToXLSX writes table to a single-sheet workbook at outputPath. The
// workbook is staged in a temporary file next to the target and renamed into
// place, so a failed export leaves no partial file.
func ExportTableToXLSX(table internal.Table, outputPath string) (err error) {
	f := excelize.NewFile()
	defer func() { err = multierr.Append(err, f.Close()) }()
	sheet := f.GetSheetName(0)

	for i, h := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, row := range table.Rows {
		r := i + 2
		for c, value := range row {
			v, ok := cellValue(value)
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := f.WriteTo(tmp); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err := tmp.Chmod(0o644); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, outputPath)
}

func cellValue(cell internal.Cell) (any, bool) {
	if cell.Number != nil {
		return *cell.Number, true
	}
	if cell.Text == "" {
		return nil, false
	}
	return cell.Text, true
}
