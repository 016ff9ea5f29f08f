package ingest

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/metrics"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/store"
)

// Source is one upstream product feed.
type Source interface {
	Name() string
	Endpoint() string
	Fetch() ([]models.SourceSample, []byte, *FetchResult, error)
}

// Scheduler polls the upstream feeds and recomputes the index when new
// samples land. Monthly products publish irregularly, so it polls on a
// coarse interval rather than a calendar schedule.
type Scheduler struct {
	store    *store.Store
	pipeline *Pipeline
	sources  []Source
	loc      *time.Location
	interval time.Duration
}

func NewScheduler(st *store.Store, pipeline *Pipeline, sources []Source, loc *time.Location) *Scheduler {
	return &Scheduler{
		store:    st,
		pipeline: pipeline,
		sources:  sources,
		loc:      loc,
		interval: 6 * time.Hour,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	s.ingestAndRecompute()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-ticker.C:
			s.ingestAndRecompute()
		}
	}
}

// IngestOnce runs a single fetch cycle across all sources and recomputes
// if anything new was stored.
func (s *Scheduler) IngestOnce() error {
	return s.ingestAndRecompute()
}

func (s *Scheduler) ingestAndRecompute() error {
	stored := 0
	for _, src := range s.sources {
		n, err := s.ingestSource(src)
		if err != nil {
			log.Printf("scheduler: ingest %s: %v", src.Name(), err)
			continue
		}
		stored += n
	}

	if stored == 0 {
		log.Println("scheduler: no new samples, skipping recompute")
		return nil
	}

	log.Printf("scheduler: stored %d samples, recomputing index", stored)
	if err := s.pipeline.Run(); err != nil {
		log.Printf("scheduler: recompute: %v", err)
		return err
	}
	return nil
}

func (s *Scheduler) ingestSource(src Source) (int, error) {
	log.Printf("scheduler: ingesting %s", src.Name())
	run, err := s.store.StartIngestRun(src.Name(), src.Endpoint())
	if err != nil {
		log.Printf("scheduler: start ingest run: %v", err)
	}

	started := time.Now()
	samples, rawBody, fetchResult, fetchErr := src.Fetch()
	metrics.SourceFetchLatency.WithLabelValues(src.Name()).Observe(time.Since(started).Seconds())

	if run != nil {
		run.Success = fetchErr == nil
		if fetchResult != nil {
			run.HTTPStatus = sql.NullInt64{Int64: int64(fetchResult.HTTPStatus), Valid: fetchResult.HTTPStatus > 0}
			run.ResponseSizeBytes = sql.NullInt64{Int64: int64(fetchResult.ResponseSize), Valid: fetchResult.ResponseSize > 0}
			run.RecordsParsed = sql.NullInt64{Int64: int64(fetchResult.RecordCount), Valid: true}
			if fetchResult.ParseErrors > 0 {
				run.ParseErrors = sql.NullInt64{Int64: int64(fetchResult.ParseErrors), Valid: true}
				run.ErrorMessage = sql.NullString{String: fetchResult.ParseError, Valid: true}
			}
		}
		if fetchErr != nil {
			run.ErrorMessage = sql.NullString{String: fetchErr.Error(), Valid: true}
		}
	}

	if len(rawBody) > 0 && run != nil {
		if _, err := s.store.StoreRawPayload(&run.ID, src.Name(), src.Endpoint(), rawBody); err != nil {
			log.Printf("scheduler: store %s raw payload: %v", src.Name(), err)
		}
	}

	stored := 0
	if fetchErr != nil {
		metrics.SourceFetchesTotal.WithLabelValues(src.Name(), "error").Inc()
	} else {
		metrics.SourceFetchesTotal.WithLabelValues(src.Name(), "ok").Inc()
		if fetchResult != nil {
			for reason, n := range fetchResult.Rejected {
				metrics.SamplesRejected.WithLabelValues(src.Name(), reason).Add(float64(n))
			}
		}
		stored = s.storeSamples(src.Name(), samples)
		if run != nil {
			run.RecordsStored = sql.NullInt64{Int64: int64(stored), Valid: true}
		}
	}

	if run != nil {
		if err := s.store.CompleteIngestRun(run); err != nil {
			log.Printf("scheduler: complete ingest run: %v", err)
		}
	}
	return stored, fetchErr
}

func (s *Scheduler) storeSamples(source string, samples []models.SourceSample) int {
	stored := 0
	for _, sample := range samples {
		if err := s.store.UpsertSample(sample); err != nil {
			log.Printf("scheduler: store sample %s/%s: %v", sample.BasinID, sample.Date.Format("2006-01"), err)
			continue
		}
		stored++
	}
	metrics.SamplesIngested.WithLabelValues(source).Add(float64(stored))
	log.Printf("scheduler: stored %d %s samples", stored, source)
	return stored
}
