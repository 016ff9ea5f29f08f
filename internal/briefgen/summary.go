package briefgen

import (
	"time"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/store"
)

// BuildSummary assembles the brief material for one month from the store:
// the class tally plus the topN worst basins, ascending.
func BuildSummary(st *store.Store, date time.Time, topN int) (*Summary, error) {
	counts, err := st.GetClassCounts(date)
	if err != nil {
		return nil, err
	}

	rows, err := st.GetMonth(date)
	if err != nil {
		return nil, err
	}
	basins, err := st.GetActiveBasins()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(basins))
	for _, b := range basins {
		names[b.BasinID] = b.Name
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
		v := m.ASI.Float64
		ranked = append(ranked, asi.RankedBasin{
			BasinID: m.BasinID,
			Name:    name,
			ASI:     *asi.Round3(&v),
			Class:   m.Class,
			Date:    date.Format("2006-01-02"),
		})
	}

	return &Summary{
		Month:  date.Format("2006-01-02"),
		Counts: counts,
		Top:    asi.TopN(ranked, topN, nil),
	}, nil
}
