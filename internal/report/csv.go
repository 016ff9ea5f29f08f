package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
)

var briefColumns = []string{"basin_id", "name", "asi", "class", "date"}

// WriteTopCSV exports the ranked basins for sharing in spreadsheets.
func WriteTopCSV(path string, rows []asi.RankedBasin) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(briefColumns); err != nil {
		f.Close()
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.BasinID,
			r.Name,
			strconv.FormatFloat(r.ASI, 'f', 3, 64),
			r.Class,
			r.Date,
		}
		if err := cw.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}
