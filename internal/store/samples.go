package store

import (
	"time"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

// UpsertSample stores one raw monthly value, replacing any earlier value
// for the same (source, basin, month). Upstream products republish months
// as processing improves.
func (s *Store) UpsertSample(sample models.SourceSample) error {
	_, err := s.db.Exec(`
		INSERT INTO source_samples (source, variable, basin_id, date, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source, basin_id, date) DO UPDATE SET
			variable = excluded.variable,
			value = excluded.value
	`, sample.Source, sample.Variable, sample.BasinID, sample.Date.Format("2006-01-02"), sample.Value)
	return err
}

// GetSamplesByVariable returns every stored sample for one variable,
// ordered by (basin, date) so per-basin series come out contiguous.
func (s *Store) GetSamplesByVariable(variable string) ([]models.SourceSample, error) {
	rows, err := s.db.Query(`
		SELECT id, source, variable, basin_id, date, value
		FROM source_samples
		WHERE variable = ?
		ORDER BY basin_id, date
	`, variable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.SourceSample
	for rows.Next() {
		var sm models.SourceSample
		var date string
		if err := rows.Scan(&sm.ID, &sm.Source, &sm.Variable, &sm.BasinID, &date, &sm.Value); err != nil {
			return nil, err
		}
		if sm.Date, err = time.Parse("2006-01-02", date[:10]); err != nil {
			return nil, err
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

// GetSampleVariables lists the distinct variables present in the store.
func (s *Store) GetSampleVariables() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT variable FROM source_samples ORDER BY variable`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vars []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, rows.Err()
}

// CountSamples returns the number of stored samples for one source.
func (s *Store) CountSamples(source string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM source_samples WHERE source = ?`, source).Scan(&n)
	return n, err
}
