package store

import (
	"database/sql"
	"time"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

func (s *Store) UpsertBasin(b models.Basin) error {
	_, err := s.db.Exec(`
		INSERT INTO basins (basin_id, name, latitude, longitude, active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(basin_id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			active = excluded.active
	`, b.BasinID, b.Name, b.Latitude, b.Longitude, b.Active)
	return err
}

func (s *Store) GetActiveBasins() ([]models.Basin, error) {
	rows, err := s.db.Query(`SELECT basin_id, name, latitude, longitude, active FROM basins WHERE active = TRUE ORDER BY basin_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var basins []models.Basin
	for rows.Next() {
		var b models.Basin
		if err := rows.Scan(&b.BasinID, &b.Name, &b.Latitude, &b.Longitude, &b.Active); err != nil {
			return nil, err
		}
		basins = append(basins, b)
	}
	return basins, rows.Err()
}

func (s *Store) GetBasin(basinID string) (*models.Basin, error) {
	row := s.db.QueryRow(`SELECT basin_id, name, latitude, longitude, active FROM basins WHERE basin_id = ?`, basinID)
	var b models.Basin
	err := row.Scan(&b.BasinID, &b.Name, &b.Latitude, &b.Longitude, &b.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) UpsertBasinMonth(m models.BasinMonth) error {
	_, err := s.db.Exec(`
		INSERT INTO basin_months (basin_id, date, twsa, sm, rain, rain_def, twsa_z, sm_z, rain_z, rain_def_z, asi, class)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(basin_id, date) DO UPDATE SET
			twsa = excluded.twsa,
			sm = excluded.sm,
			rain = excluded.rain,
			rain_def = excluded.rain_def,
			twsa_z = excluded.twsa_z,
			sm_z = excluded.sm_z,
			rain_z = excluded.rain_z,
			rain_def_z = excluded.rain_def_z,
			asi = excluded.asi,
			class = excluded.class
	`, m.BasinID, m.Date.Format("2006-01-02"), m.TWSA, m.SM, m.Rain, m.RainDef,
		m.TWSAZ, m.SMZ, m.RainZ, m.RainDefZ, m.ASI, m.Class)
	return err
}

const monthColumns = `id, basin_id, date, twsa, sm, rain, rain_def, twsa_z, sm_z, rain_z, rain_def_z, asi, class, created_at`

func scanMonth(scanner interface{ Scan(...any) error }) (models.BasinMonth, error) {
	var m models.BasinMonth
	var date string
	err := scanner.Scan(&m.ID, &m.BasinID, &date, &m.TWSA, &m.SM, &m.Rain, &m.RainDef,
		&m.TWSAZ, &m.SMZ, &m.RainZ, &m.RainDefZ, &m.ASI, &m.Class, &m.CreatedAt)
	if err != nil {
		return m, err
	}
	m.Date, err = time.Parse("2006-01-02", date[:10])
	return m, err
}

// GetMonth returns every basin row for one month, ordered by basin.
func (s *Store) GetMonth(date time.Time) ([]models.BasinMonth, error) {
	rows, err := s.db.Query(`
		SELECT `+monthColumns+`
		FROM basin_months
		WHERE date = ?
		ORDER BY basin_id
	`, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMonths(rows)
}

// GetHistory returns every month for one basin, oldest first.
func (s *Store) GetHistory(basinID string) ([]models.BasinMonth, error) {
	rows, err := s.db.Query(`
		SELECT `+monthColumns+`
		FROM basin_months
		WHERE basin_id = ?
		ORDER BY date ASC
	`, basinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMonths(rows)
}

// GetAllMonths returns the full table ordered by (basin, date), the order
// asi_table.csv is written in.
func (s *Store) GetAllMonths() ([]models.BasinMonth, error) {
	rows, err := s.db.Query(`
		SELECT ` + monthColumns + `
		FROM basin_months
		ORDER BY basin_id, date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMonths(rows)
}

func collectMonths(rows *sql.Rows) ([]models.BasinMonth, error) {
	var months []models.BasinMonth
	for rows.Next() {
		m, err := scanMonth(rows)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// GetDateRange returns the min and max month in the table. Zero times and
// false when the table is empty.
func (s *Store) GetDateRange() (min, max time.Time, ok bool, err error) {
	var minStr, maxStr sql.NullString
	err = s.db.QueryRow(`SELECT MIN(date), MAX(date) FROM basin_months`).Scan(&minStr, &maxStr)
	if err != nil {
		return
	}
	if !minStr.Valid || !maxStr.Valid {
		return
	}
	if min, err = time.Parse("2006-01-02", minStr.String[:10]); err != nil {
		return
	}
	if max, err = time.Parse("2006-01-02", maxStr.String[:10]); err != nil {
		return
	}
	ok = true
	return
}

// GetLatestCoveredDate returns the most recent month with at least one
// computed ASI value. Months where every basin is no-data don't count as
// coverage.
func (s *Store) GetLatestCoveredDate() (time.Time, bool, error) {
	var dateStr sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM basin_months WHERE asi IS NOT NULL`).Scan(&dateStr)
	if err != nil {
		return time.Time{}, false, err
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse("2006-01-02", dateStr.String[:10])
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// GetClassCounts tallies active basins by class for one month. Basins with
// no row for that month count as no-data, matching what a joined map shows.
func (s *Store) GetClassCounts(date time.Time) (models.ClassCounts, error) {
	rows, err := s.db.Query(`
		SELECT COALESCE(bm.class, 'no-data'), COUNT(*)
		FROM basins b
		LEFT JOIN basin_months bm
			ON bm.basin_id = b.basin_id AND bm.date = ?
		WHERE b.active = 1
		GROUP BY 1
	`, date.Format("2006-01-02"))
	if err != nil {
		return models.ClassCounts{}, err
	}
	defer rows.Close()

	var counts models.ClassCounts
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return counts, err
		}
		switch class {
		case "alert":
			counts.Alert = n
		case "watch":
			counts.Watch = n
		case "normal":
			counts.Normal = n
		default:
			counts.NoData += n
		}
	}
	return counts, rows.Err()
}

// GetMinMaxASI returns the ASI extremes for one month.
func (s *Store) GetMinMaxASI(date time.Time) (min, max sql.NullFloat64, err error) {
	err = s.db.QueryRow(`
		SELECT MIN(asi), MAX(asi) FROM basin_months WHERE date = ?
	`, date.Format("2006-01-02")).Scan(&min, &max)
	return
}
