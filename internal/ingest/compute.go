package ingest

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asitable"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/geo"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/metrics"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/store"
)

// Pipeline recomputes the index from stored samples and refreshes the
// exported table and latest-month GeoJSON.
type Pipeline struct {
	store      *store.Store
	dataDir    string
	basinsPath string

	// OnRecompute, when set, is called with each month ("2006-01") whose
	// rows were rewritten. The server uses it to drop cached brief cards.
	OnRecompute func(month string)
}

func NewPipeline(st *store.Store, dataDir string) *Pipeline {
	return &Pipeline{
		store:      st,
		dataDir:    dataDir,
		basinsPath: filepath.Join(dataDir, "static", "basins.geojson"),
	}
}

// TablePath is where the exported ASI table lands.
func (p *Pipeline) TablePath() string {
	return filepath.Join(p.dataDir, "processed", "asi_table.csv")
}

// LatestGeoJSONPath is where the latest-month FeatureCollection lands.
func (p *Pipeline) LatestGeoJSONPath() string {
	return filepath.Join(p.dataDir, "processed", "asi_latest.geojson")
}

// Run recomputes every basin-month and rewrites the exported outputs.
func (p *Pipeline) Run() error {
	if err := p.Recompute(); err != nil {
		metrics.ComputeRunsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := p.WriteOutputs(); err != nil {
		metrics.ComputeRunsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.ComputeRunsTotal.WithLabelValues("ok").Inc()
	return nil
}

type monthKey struct {
	basinID string
	date    time.Time
}

// Recompute rebuilds basin_months from source_samples: per-basin z-scores
// over each basin's own history, rain/deficit mirroring, the renormalized
// composite, and classification.
func (p *Pipeline) Recompute() error {
	rows := make(map[monthKey]*models.BasinMonth)

	ensure := func(k monthKey) *models.BasinMonth {
		if r, ok := rows[k]; ok {
			return r
		}
		r := &models.BasinMonth{BasinID: k.basinID, Date: k.date}
		rows[k] = r
		return r
	}

	for _, variable := range knownVariables {
		samples, err := p.store.GetSamplesByVariable(variable)
		if err != nil {
			return fmt.Errorf("load %s samples: %w", variable, err)
		}
		if len(samples) == 0 {
			continue
		}

		// Per-basin standardization: samples arrive ordered by basin so
		// each series is a contiguous run.
		for start := 0; start < len(samples); {
			end := start
			for end < len(samples) && samples[end].BasinID == samples[start].BasinID {
				end++
			}
			series := samples[start:end]

			values := make([]*float64, len(series))
			for i := range series {
				values[i] = &series[i].Value
			}
			zs := asi.ZScores(values)

			for i, sample := range series {
				row := ensure(monthKey{basinID: sample.BasinID, date: sample.Date})
				setComponent(row, variable, sample.Value, zs[i])
			}
			start = end
		}
	}

	if len(rows) == 0 {
		return fmt.Errorf("no samples to compute from")
	}

	stored := 0
	touched := make(map[string]bool)
	for _, row := range rows {
		finishRow(row)
		if err := p.store.UpsertBasinMonth(*row); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", row.BasinID, row.Date.Format("2006-01"), err)
		}
		stored++
		touched[row.Date.Format("2006-01")] = true
	}
	log.Printf("compute: stored %d basin-months", stored)

	if p.OnRecompute != nil {
		for month := range touched {
			p.OnRecompute(month)
		}
	}

	return p.refreshGauges()
}

func setComponent(row *models.BasinMonth, variable string, value float64, z *float64) {
	nf := func(v *float64) sql.NullFloat64 {
		if v == nil {
			return sql.NullFloat64{}
		}
		return sql.NullFloat64{Float64: *v, Valid: true}
	}

	switch variable {
	case "twsa":
		row.TWSA = sql.NullFloat64{Float64: value, Valid: true}
		row.TWSAZ = nf(z)
	case "sm":
		row.SM = sql.NullFloat64{Float64: value, Valid: true}
		row.SMZ = nf(z)
	case "rain":
		row.Rain = sql.NullFloat64{Float64: value, Valid: true}
		row.RainZ = nf(z)
	case "rain_def":
		row.RainDef = sql.NullFloat64{Float64: value, Valid: true}
		row.RainDefZ = nf(z)
	}
}

// finishRow derives the mirrored rain z-score, the composite and the class.
// A wet rainfall anomaly is a negative deficit anomaly and vice versa.
func finishRow(row *models.BasinMonth) {
	if row.RainZ.Valid && !row.RainDefZ.Valid {
		row.RainDefZ = sql.NullFloat64{Float64: -row.RainZ.Float64, Valid: true}
	} else if row.RainDefZ.Valid && !row.RainZ.Valid {
		row.RainZ = sql.NullFloat64{Float64: -row.RainDefZ.Float64, Valid: true}
	}

	var twsaZ, smZ, rainZ *float64
	if row.TWSAZ.Valid {
		twsaZ = &row.TWSAZ.Float64
	}
	if row.SMZ.Valid {
		smZ = &row.SMZ.Float64
	}
	if row.RainZ.Valid {
		rainZ = &row.RainZ.Float64
	}

	composite := asi.Composite(twsaZ, smZ, rainZ)
	if composite != nil {
		row.ASI = sql.NullFloat64{Float64: *composite, Valid: true}
	} else {
		row.ASI = sql.NullFloat64{}
	}
	row.Class = asi.ClassifyNullable(composite)
}

func (p *Pipeline) refreshGauges() error {
	latest, ok, err := p.store.GetLatestCoveredDate()
	if err != nil || !ok {
		return err
	}
	metrics.LatestCoveredMonth.Set(float64(latest.Unix()))

	counts, err := p.store.GetClassCounts(latest)
	if err != nil {
		return err
	}
	metrics.BasinsClassified.WithLabelValues(asi.ClassAlert).Set(float64(counts.Alert))
	metrics.BasinsClassified.WithLabelValues(asi.ClassWatch).Set(float64(counts.Watch))
	metrics.BasinsClassified.WithLabelValues(asi.ClassNormal).Set(float64(counts.Normal))
	metrics.BasinsClassified.WithLabelValues(asi.ClassNoData).Set(float64(counts.NoData))
	return nil
}

// WriteOutputs rewrites asi_table.csv and asi_latest.geojson, the files
// downstream tooling and the dashboard's static fallback consume.
func (p *Pipeline) WriteOutputs() error {
	if err := os.MkdirAll(filepath.Join(p.dataDir, "processed"), 0755); err != nil {
		return err
	}

	months, err := p.store.GetAllMonths()
	if err != nil {
		return fmt.Errorf("load table: %w", err)
	}
	if err := asitable.WriteFile(p.TablePath(), months); err != nil {
		return fmt.Errorf("write %s: %w", p.TablePath(), err)
	}
	log.Printf("compute: wrote %s (%d rows)", p.TablePath(), len(months))

	latest, ok, err := p.store.GetLatestCoveredDate()
	if err != nil {
		return err
	}

	fc, err := geo.Load(p.basinsPath)
	if err != nil {
		return fmt.Errorf("load basins: %w", err)
	}

	if ok {
		monthRows, err := p.store.GetMonth(latest)
		if err != nil {
			return err
		}
		fc.JoinMonth(monthRows, latest.Format("2006-01-02"))
	} else {
		fc.FillNoData()
	}

	if err := geo.Save(p.LatestGeoJSONPath(), fc); err != nil {
		return fmt.Errorf("write %s: %w", p.LatestGeoJSONPath(), err)
	}
	log.Printf("compute: wrote %s", p.LatestGeoJSONPath())
	return nil
}
