package export

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Sheet is one named table of a workbook
type Sheet struct {
	Name    string
	Records [][]string
}

// WriteWorkbook writes every sheet into a single .xlsx. Cells that parse as
// numbers are stored as numbers so spreadsheet formulas work on them.
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return errors.New("workbook needs at least one sheet")
	}
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, sh.Name); err != nil {
				return errors.Wrapf(err, "rename sheet %s", sh.Name)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return errors.Wrapf(err, "create sheet %s", sh.Name)
		}
		if err := fillSheet(f, sh); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func fillSheet(f *excelize.File, sh Sheet) error {
	for i, rec := range sh.Records {
		cells := make([]interface{}, len(rec))
		for j, v := range rec {
			cells[j] = v
			// header row stays text
			if i == 0 {
				continue
			}
			if n, err := strconv.ParseFloat(v, 64); err == nil && v != "" {
				cells[j] = n
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(sh.Name, axis, &cells); err != nil {
			return errors.Wrapf(err, "fill sheet %s row %d", sh.Name, i+1)
		}
	}
	return nil
}
