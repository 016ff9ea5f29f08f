package store

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	loc, err := time.LoadLocation("Africa/Dakar")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	store := New(db, loc)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func month(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestUpsertAndGetBasin(t *testing.T) {
	store := setupTestStore(t)

	basin := models.Basin{BasinID: "1041", Name: "Saloum", Active: true}
	if err := store.UpsertBasin(basin); err != nil {
		t.Fatalf("UpsertBasin: %v", err)
	}

	basins, err := store.GetActiveBasins()
	if err != nil {
		t.Fatalf("GetActiveBasins: %v", err)
	}
	if len(basins) != 1 {
		t.Fatalf("len(basins) = %d, want 1", len(basins))
	}
	if basins[0].Name != "Saloum" {
		t.Errorf("Name = %q, want Saloum", basins[0].Name)
	}

	// Upsert with new name replaces, not duplicates.
	basin.Name = "Saloum Basin"
	if err := store.UpsertBasin(basin); err != nil {
		t.Fatalf("UpsertBasin update: %v", err)
	}
	got, err := store.GetBasin("1041")
	if err != nil {
		t.Fatalf("GetBasin: %v", err)
	}
	if got == nil || got.Name != "Saloum Basin" {
		t.Errorf("GetBasin = %+v, want updated name", got)
	}

	missing, err := store.GetBasin("9999")
	if err != nil {
		t.Fatalf("GetBasin missing: %v", err)
	}
	if missing != nil {
		t.Errorf("GetBasin(9999) = %+v, want nil", missing)
	}
}

func TestUpsertBasinMonth_Replaces(t *testing.T) {
	store := setupTestStore(t)

	m := models.BasinMonth{
		BasinID: "1041",
		Date:    month(t, "2023-06-01"),
		ASI:     sql.NullFloat64{Float64: -1.2, Valid: true},
		Class:   "alert",
	}
	if err := store.UpsertBasinMonth(m); err != nil {
		t.Fatalf("UpsertBasinMonth: %v", err)
	}

	m.ASI = sql.NullFloat64{Float64: -0.7, Valid: true}
	m.Class = "watch"
	if err := store.UpsertBasinMonth(m); err != nil {
		t.Fatalf("UpsertBasinMonth update: %v", err)
	}

	months, err := store.GetMonth(month(t, "2023-06-01"))
	if err != nil {
		t.Fatalf("GetMonth: %v", err)
	}
	if len(months) != 1 {
		t.Fatalf("len = %d, want 1 (upsert must replace)", len(months))
	}
	if months[0].Class != "watch" || months[0].ASI.Float64 != -0.7 {
		t.Errorf("row = %+v, want updated", months[0])
	}
}

func TestGetHistory_Ordering(t *testing.T) {
	store := setupTestStore(t)

	for _, d := range []string{"2023-06-01", "2023-04-01", "2023-05-01"} {
		if err := store.UpsertBasinMonth(models.BasinMonth{
			BasinID: "1041", Date: month(t, d), Class: "normal",
		}); err != nil {
			t.Fatalf("upsert %s: %v", d, err)
		}
	}
	// Another basin must not leak into the history.
	if err := store.UpsertBasinMonth(models.BasinMonth{
		BasinID: "1042", Date: month(t, "2023-06-01"), Class: "normal",
	}); err != nil {
		t.Fatal(err)
	}

	history, err := store.GetHistory("1041")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
	for i, want := range []string{"2023-04-01", "2023-05-01", "2023-06-01"} {
		if got := history[i].Date.Format("2006-01-02"); got != want {
			t.Errorf("history[%d] = %s, want %s", i, got, want)
		}
	}
}

func TestGetLatestCoveredDate_SkipsNoDataMonths(t *testing.T) {
	store := setupTestStore(t)

	if _, ok, err := store.GetLatestCoveredDate(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v, want false/nil", ok, err)
	}

	// May has ASI coverage; June exists but is all no-data.
	if err := store.UpsertBasinMonth(models.BasinMonth{
		BasinID: "1041", Date: month(t, "2023-05-01"),
		ASI: sql.NullFloat64{Float64: -0.3, Valid: true}, Class: "normal",
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertBasinMonth(models.BasinMonth{
		BasinID: "1041", Date: month(t, "2023-06-01"), Class: "no-data",
	}); err != nil {
		t.Fatal(err)
	}

	latest, ok, err := store.GetLatestCoveredDate()
	if err != nil {
		t.Fatalf("GetLatestCoveredDate: %v", err)
	}
	if !ok {
		t.Fatal("expected coverage")
	}
	if got := latest.Format("2006-01-02"); got != "2023-05-01" {
		t.Errorf("latest = %s, want 2023-05-01 (June has no ASI)", got)
	}

	minD, maxD, ok, err := store.GetDateRange()
	if err != nil || !ok {
		t.Fatalf("GetDateRange: ok=%v err=%v", ok, err)
	}
	if minD.Format("2006-01-02") != "2023-05-01" || maxD.Format("2006-01-02") != "2023-06-01" {
		t.Errorf("range = %s..%s", minD.Format("2006-01-02"), maxD.Format("2006-01-02"))
	}
}

func TestGetClassCounts(t *testing.T) {
	store := setupTestStore(t)
	d := month(t, "2023-06-01")

	rowsIn := []struct {
		id    string
		class string
	}{
		{"1", "alert"}, {"2", "alert"}, {"3", "watch"}, {"4", "normal"}, {"5", "no-data"},
	}
	for _, r := range rowsIn {
		if err := store.UpsertBasin(models.Basin{BasinID: r.id, Active: true}); err != nil {
			t.Fatal(err)
		}
		if err := store.UpsertBasinMonth(models.BasinMonth{BasinID: r.id, Date: d, Class: r.class}); err != nil {
			t.Fatal(err)
		}
	}
	// Basin 6 has geometry but no row for the month.
	if err := store.UpsertBasin(models.Basin{BasinID: "6", Active: true}); err != nil {
		t.Fatal(err)
	}

	counts, err := store.GetClassCounts(d)
	if err != nil {
		t.Fatalf("GetClassCounts: %v", err)
	}
	if counts.Alert != 2 || counts.Watch != 1 || counts.Normal != 1 {
		t.Errorf("counts = %+v", counts)
	}
	if counts.NoData != 2 {
		t.Errorf("NoData = %d, want 2 (stored no-data row plus basin without a row)", counts.NoData)
	}
	if counts.Total() != 6 {
		t.Errorf("Total = %d, want 6", counts.Total())
	}
}

func TestUpsertSample_Replaces(t *testing.T) {
	store := setupTestStore(t)

	s := models.SourceSample{Source: "grace", Variable: "twsa", BasinID: "1041", Date: month(t, "2023-06-01"), Value: -4.2}
	if err := store.UpsertSample(s); err != nil {
		t.Fatalf("UpsertSample: %v", err)
	}
	s.Value = -4.5
	if err := store.UpsertSample(s); err != nil {
		t.Fatalf("UpsertSample update: %v", err)
	}

	samples, err := store.GetSamplesByVariable("twsa")
	if err != nil {
		t.Fatalf("GetSamplesByVariable: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("len = %d, want 1", len(samples))
	}
	if samples[0].Value != -4.5 {
		t.Errorf("Value = %v, want -4.5", samples[0].Value)
	}

	n, err := store.CountSamples("grace")
	if err != nil || n != 1 {
		t.Errorf("CountSamples = %d, %v", n, err)
	}
}

func TestIngestRunLifecycle(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.StartIngestRun("grace", "mascons/senegal.csv")
	if err != nil {
		t.Fatalf("StartIngestRun: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("run ID not assigned")
	}

	run.Success = false
	run.ErrorMessage = sql.NullString{String: "ftp timeout", Valid: true}
	if err := store.CompleteIngestRun(run); err != nil {
		t.Fatalf("CompleteIngestRun: %v", err)
	}

	errs, err := store.GetRecentIngestErrors(10)
	if err != nil {
		t.Fatalf("GetRecentIngestErrors: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("len = %d, want 1", len(errs))
	}
	if errs[0].ErrorMessage.String != "ftp timeout" {
		t.Errorf("ErrorMessage = %q", errs[0].ErrorMessage.String)
	}
	if !errs[0].FinishedAt.Valid {
		t.Error("FinishedAt not set")
	}
}

func TestStoreRawPayload_Dedupes(t *testing.T) {
	store := setupTestStore(t)

	payload := []byte("basin_id,date,twsa\n1041,2023-06-01,-4.2\n")
	id, err := store.StoreRawPayload(nil, "grace", "mascons/senegal.csv", payload)
	if err != nil {
		t.Fatalf("StoreRawPayload: %v", err)
	}
	if id == 0 {
		t.Fatal("expected new payload ID")
	}

	dup, err := store.StoreRawPayload(nil, "grace", "mascons/senegal.csv", payload)
	if err != nil {
		t.Fatalf("StoreRawPayload dup: %v", err)
	}
	if dup != 0 {
		t.Errorf("duplicate payload stored with ID %d, want 0", dup)
	}
}
