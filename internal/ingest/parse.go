package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

// Reject reasons reported on validation failures.
const (
	RejectBadDate    = "bad_date"
	RejectBadValue   = "bad_value"
	RejectEmptyBasin = "empty_basin"
	RejectNotFinite  = "not_finite"
)

// Variables a source CSV may carry. The imerg feed switches between rain
// totals and rain deficit depending on the processing chain.
var knownVariables = []string{"twsa", "sm", "rain", "rain_def"}

// ParseStats summarizes one parsed CSV.
type ParseStats struct {
	Parsed   int
	Rejected map[string]int
}

func (p ParseStats) TotalRejected() int {
	n := 0
	for _, v := range p.Rejected {
		n += v
	}
	return n
}

// ParseSourceCSV reads a per-basin monthly CSV with columns
// (basin_id, date, <variable>) plus any extras, and returns validated
// samples. Invalid rows are counted, not fatal: one bad basin must not sink
// a whole month of data.
func ParseSourceCSV(r io.Reader, source string) ([]models.SourceSample, ParseStats, error) {
	stats := ParseStats{Rejected: make(map[string]int)}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}

	basinCol, ok := cols["basin_id"]
	if !ok {
		return nil, stats, fmt.Errorf("%s: no basin_id column", source)
	}
	dateCol, ok := cols["date"]
	if !ok {
		return nil, stats, fmt.Errorf("%s: no date column", source)
	}

	variable := ""
	valueCol := -1
	for _, v := range knownVariables {
		if i, ok := cols[v]; ok {
			variable = v
			valueCol = i
			break
		}
	}
	if valueCol < 0 {
		return nil, stats, fmt.Errorf("%s: no known value column (want one of %s)", source, strings.Join(knownVariables, ", "))
	}

	var samples []models.SourceSample
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%s: %w", source, err)
		}
		if len(rec) <= basinCol || len(rec) <= dateCol || len(rec) <= valueCol {
			stats.Rejected[RejectBadValue]++
			continue
		}

		basinID := strings.TrimSpace(rec[basinCol])
		if basinID == "" {
			stats.Rejected[RejectEmptyBasin]++
			continue
		}

		date, err := asi.ParseMonth(strings.TrimSpace(rec[dateCol]))
		if err != nil {
			stats.Rejected[RejectBadDate]++
			continue
		}

		raw := strings.TrimSpace(rec[valueCol])
		if raw == "" {
			stats.Rejected[RejectBadValue]++
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			stats.Rejected[RejectBadValue]++
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			stats.Rejected[RejectNotFinite]++
			continue
		}

		samples = append(samples, models.SourceSample{
			Source:   source,
			Variable: variable,
			BasinID:  basinID,
			Date:     date,
			Value:    value,
		})
		stats.Parsed++
	}
	return samples, stats, nil
}
