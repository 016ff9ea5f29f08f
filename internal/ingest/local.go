package ingest

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/metrics"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/store"
)

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

// interim file name -> source label. These are the files the offline
// pipeline historically dropped in data/interim.
var interimFiles = map[string]string{
	"grace.csv": "grace",
	"era5.csv":  "era5",
	"imerg.csv": "imerg",
}

// BackfillFromDir loads the interim CSV files from dir into the sample
// store. Missing files are skipped with a warning; at least one must load.
func BackfillFromDir(st *store.Store, dir string) (int, error) {
	stored := 0
	loaded := 0

	for file, source := range interimFiles {
		path := filepath.Join(dir, file)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("backfill: missing %s, skipping", path)
				continue
			}
			return stored, fmt.Errorf("open %s: %w", path, err)
		}

		samples, stats, err := ParseSourceCSV(f, source)
		f.Close()
		if err != nil {
			return stored, fmt.Errorf("parse %s: %w", path, err)
		}
		for reason, n := range stats.Rejected {
			metrics.SamplesRejected.WithLabelValues(source, reason).Add(float64(n))
			log.Printf("backfill: %s: rejected %d rows (%s)", file, n, reason)
		}

		run, err := st.StartIngestRun(source, "local:"+file)
		if err != nil {
			log.Printf("backfill: start ingest run: %v", err)
		}

		n := 0
		for _, sample := range samples {
			if err := st.UpsertSample(sample); err != nil {
				log.Printf("backfill: store sample %s/%s: %v", sample.BasinID, sample.Date.Format("2006-01"), err)
				continue
			}
			n++
		}
		metrics.SamplesIngested.WithLabelValues(source).Add(float64(n))
		log.Printf("backfill: %s: stored %d samples", file, n)
		stored += n
		loaded++

		if run != nil {
			run.Success = true
			completeLocalRun(st, run, stats, n)
		}
	}

	if loaded == 0 {
		return 0, fmt.Errorf("no usable CSVs found in %s", dir)
	}
	return stored, nil
}

func completeLocalRun(st *store.Store, run *store.IngestRun, stats ParseStats, stored int) {
	run.RecordsParsed = nullInt(stats.Parsed)
	run.RecordsStored = nullInt(stored)
	if rejected := stats.TotalRejected(); rejected > 0 {
		run.ParseErrors = nullInt(rejected)
	}
	if err := st.CompleteIngestRun(run); err != nil {
		log.Printf("backfill: complete ingest run: %v", err)
	}
}
