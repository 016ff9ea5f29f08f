// Package geo handles the basin geometry file and the join of monthly ASI
// rows onto basin features. Geometries are never interpreted, only carried
// through to the map client.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

type Feature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id,omitempty"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// Load reads a FeatureCollection from disk.
func Load(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, f := range fc.Features {
		if f.Properties == nil {
			f.Properties = make(map[string]any)
		}
	}
	return &fc, nil
}

// Save writes the collection back to disk.
func Save(path string, fc *FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BasinID returns the feature's basin identifier as a string. GeoJSON
// sources encode it variously as string or number.
func (f *Feature) BasinID() string {
	return propString(f.Properties["basin_id"])
}

// JoinMonth overlays one month of ASI rows onto the basin features. Basins
// without a row for that month get null components and class "no-data".
// Numeric values are rounded to three decimals.
func (fc *FeatureCollection) JoinMonth(rows []models.BasinMonth, date string) {
	byID := make(map[string]models.BasinMonth, len(rows))
	for _, r := range rows {
		byID[r.BasinID] = r
	}

	for _, f := range fc.Features {
		p := f.Properties
		row, ok := byID[f.BasinID()]
		if !ok {
			p["date"] = date
			for _, k := range []string{"twsa_z", "sm_z", "rain_z", "rain_def_z", "asi"} {
				p[k] = nil
			}
			p["class"] = asi.ClassNoData
			continue
		}

		p["date"] = date
		p["twsa_z"] = roundedOrNil(row.TWSAZ.Float64, row.TWSAZ.Valid)
		p["sm_z"] = roundedOrNil(row.SMZ.Float64, row.SMZ.Valid)
		p["rain_z"] = roundedOrNil(row.RainZ.Float64, row.RainZ.Valid)
		p["rain_def_z"] = roundedOrNil(row.RainDefZ.Float64, row.RainDefZ.Valid)
		p["asi"] = roundedOrNil(row.ASI.Float64, row.ASI.Valid)
		p["class"] = row.Class
		if propString(p["name"]) == "" {
			p["name"] = f.BasinID()
		}
	}
}

// FillNoData stamps every feature with null components and class "no-data".
// Used when no month has been computed yet.
func (fc *FeatureCollection) FillNoData() {
	for _, f := range fc.Features {
		p := f.Properties
		p["date"] = nil
		for _, k := range []string{"twsa_z", "sm_z", "rain_z", "rain_def_z", "asi"} {
			p[k] = nil
		}
		p["class"] = asi.ClassNoData
	}
}

// SetNames fills a missing display name from the identifiers the upstream
// shapefile carries: SUB_NAME, then HYBAS_ID, then basin_id.
func (fc *FeatureCollection) SetNames() int {
	changed := 0
	for _, f := range fc.Features {
		p := f.Properties
		if propString(p["name"]) != "" {
			continue
		}
		for _, key := range []string{"SUB_NAME", "HYBAS_ID", "basin_id"} {
			if v := propString(p[key]); v != "" {
				p["name"] = v
				changed++
				break
			}
		}
	}
	return changed
}

func roundedOrNil(v float64, valid bool) any {
	if !valid {
		return nil
	}
	return *asi.Round3(&v)
}

// propString renders a property value as a string. JSON numbers arrive as
// float64; integral ones print without a decimal point.
func propString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return fmt.Sprintf("%.0f", t)
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
