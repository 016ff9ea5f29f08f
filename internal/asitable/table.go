// Package asitable reads and writes data/processed/asi_table.csv, the flat
// monthly ASI table shared with downstream tooling. The column set and
// order are fixed; empty cells mean NULL.
package asitable

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

// Columns is the canonical header, in order.
var Columns = []string{
	"basin_id", "date",
	"twsa", "sm", "rain", "rain_def",
	"twsa_z", "sm_z", "rain_z", "rain_def_z",
	"asi", "class",
}

// Read parses an ASI table from r. The header must match Columns exactly.
func Read(r io.Reader) ([]models.BasinMonth, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], col)
		}
	}

	var rows []models.BasinMonth
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile loads an ASI table from disk.
func ReadFile(path string) ([]models.BasinMonth, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write serializes rows to w with the canonical header.
func Write(w io.Writer, rows []models.BasinMonth) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			row.BasinID,
			row.Date.Format("2006-01-02"),
			formatNull(row.TWSA),
			formatNull(row.SM),
			formatNull(row.Rain),
			formatNull(row.RainDef),
			formatNull(row.TWSAZ),
			formatNull(row.SMZ),
			formatNull(row.RainZ),
			formatNull(row.RainDefZ),
			formatNull(row.ASI),
			row.Class,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s/%s: %w", row.BasinID, row.Date.Format("2006-01"), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile atomically replaces path with the serialized table.
func WriteFile(path string, rows []models.BasinMonth) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func parseRow(rec []string) (models.BasinMonth, error) {
	var row models.BasinMonth
	if rec[0] == "" {
		return row, fmt.Errorf("empty basin_id")
	}
	row.BasinID = rec[0]

	date, err := time.Parse("2006-01-02", rec[1])
	if err != nil {
		return row, fmt.Errorf("parse date %q: %w", rec[1], err)
	}
	row.Date = date

	fields := []*sql.NullFloat64{
		&row.TWSA, &row.SM, &row.Rain, &row.RainDef,
		&row.TWSAZ, &row.SMZ, &row.RainZ, &row.RainDefZ,
		&row.ASI,
	}
	for i, dst := range fields {
		cell := rec[2+i]
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return row, fmt.Errorf("parse %s %q: %w", Columns[2+i], cell, err)
		}
		*dst = sql.NullFloat64{Float64: v, Valid: true}
	}

	row.Class = rec[11]
	return row, nil
}

func formatNull(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}
