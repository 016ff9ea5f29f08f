package models

import (
	"database/sql"
	"time"
)

// Basin is a groundwater unit tracked by the dataset. Geometry lives in
// basins.geojson; the store only carries identity and display metadata.
type Basin struct {
	BasinID   string
	Name      string
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	Active    bool
}

// BasinMonth is one row of the ASI table: raw components, per-basin
// z-scores, the composite index and its class for a (basin, month) pair.
// Date is always the first of the month, UTC.
type BasinMonth struct {
	ID        int64
	BasinID   string
	Date      time.Time
	TWSA      sql.NullFloat64
	SM        sql.NullFloat64
	Rain      sql.NullFloat64
	RainDef   sql.NullFloat64
	TWSAZ     sql.NullFloat64
	SMZ       sql.NullFloat64
	RainZ     sql.NullFloat64
	RainDefZ  sql.NullFloat64
	ASI       sql.NullFloat64
	Class     string
	CreatedAt time.Time
}

// SourceSample is a raw monthly value from one upstream product before
// index computation. Source is "grace", "era5" or "imerg"; Variable is
// "twsa", "sm", "rain" or "rain_def".
type SourceSample struct {
	ID       int64
	Source   string
	Variable string
	BasinID  string
	Date     time.Time
	Value    float64
}

// ClassCounts is the per-class basin tally for one month.
type ClassCounts struct {
	Alert  int
	Watch  int
	Normal int
	NoData int
}

// Total returns the number of basins counted.
func (c ClassCounts) Total() int {
	return c.Alert + c.Watch + c.Normal + c.NoData
}
