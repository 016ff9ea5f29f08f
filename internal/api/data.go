package api

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/geo"
)

// SummaryData is one month's class tally with the index extremes.
type SummaryData struct {
	AsOf   string         `json:"as_of"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
	MinASI *float64       `json:"min_asi"`
	MaxASI *float64       `json:"max_asi"`
}

type HistoryPoint struct {
	Date     string   `json:"date"`
	TWSAZ    *float64 `json:"twsa_z"`
	SMZ      *float64 `json:"sm_z"`
	RainZ    *float64 `json:"rain_z"`
	RainDefZ *float64 `json:"rain_def_z"`
	ASI      *float64 `json:"asi"`
	Class    string   `json:"class"`
}

// resolveDate picks the month a request is about: the date query parameter
// when present, otherwise the latest month with index coverage.
func (s *Server) resolveDate(raw string) (time.Time, bool, error) {
	if raw != "" {
		d, err := asi.ParseMonth(raw)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid date %q: expected YYYY-MM", raw)
		}
		return d, true, nil
	}
	d, ok, err := s.store.GetLatestCoveredDate()
	if err != nil {
		return time.Time{}, false, err
	}
	return d, ok, nil
}

// collectionForDate joins one month of index rows onto the basin polygons.
// With no coverage at all, every basin is returned as no-data.
func (s *Server) collectionForDate(date time.Time, covered bool) (*geo.FeatureCollection, error) {
	fc, err := geo.Load(s.basinsPath)
	if err != nil {
		return nil, fmt.Errorf("load basins: %w", err)
	}
	if !covered {
		fc.FillNoData()
		return fc, nil
	}
	rows, err := s.store.GetMonth(date)
	if err != nil {
		return nil, err
	}
	fc.JoinMonth(rows, date.Format("2006-01-02"))
	return fc, nil
}

// rankedForDate builds the rankable rows for one month. Basins without an
// index value that month are excluded; they cannot be ordered.
func (s *Server) rankedForDate(date time.Time) ([]asi.RankedBasin, error) {
	rows, err := s.store.GetMonth(date)
	if err != nil {
		return nil, err
	}
	names, err := s.basinNames()
	if err != nil {
		return nil, err
	}

	ranked := make([]asi.RankedBasin, 0, len(rows))
	for _, m := range rows {
		if !m.ASI.Valid {
			continue
		}
		name := names[m.BasinID]
		if name == "" {
			name = m.BasinID
		}
		ranked = append(ranked, asi.RankedBasin{
			BasinID: m.BasinID,
			Name:    name,
			ASI:     *round3(m.ASI),
			Class:   m.Class,
			Date:    date.Format("2006-01-02"),
		})
	}
	return ranked, nil
}

func (s *Server) summaryForDate(date time.Time) (*SummaryData, error) {
	counts, err := s.store.GetClassCounts(date)
	if err != nil {
		return nil, err
	}
	min, max, err := s.store.GetMinMaxASI(date)
	if err != nil {
		return nil, err
	}
	return &SummaryData{
		AsOf: date.Format("2006-01-02"),
		Counts: map[string]int{
			asi.ClassAlert:  counts.Alert,
			asi.ClassWatch:  counts.Watch,
			asi.ClassNormal: counts.Normal,
			asi.ClassNoData: counts.NoData,
		},
		Total:  counts.Total(),
		MinASI: round3(min),
		MaxASI: round3(max),
	}, nil
}

func (s *Server) basinNames() (map[string]string, error) {
	basins, err := s.store.GetActiveBasins()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(basins))
	for _, b := range basins {
		names[b.BasinID] = b.Name
	}
	return names, nil
}

func round3(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return asi.Round3(&f)
}
