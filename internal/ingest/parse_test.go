package ingest

import (
	"strings"
	"testing"
)

func TestParseSourceCSV(t *testing.T) {
	csv := `basin_id,date,twsa
1041,2023-05,-4.2
1041,2023-06-15,-6.9
1042,2023-06,1.1
`
	samples, stats, err := ParseSourceCSV(strings.NewReader(csv), "grace")
	if err != nil {
		t.Fatalf("ParseSourceCSV: %v", err)
	}
	if stats.Parsed != 3 || stats.TotalRejected() != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if samples[0].Variable != "twsa" || samples[0].Source != "grace" {
		t.Errorf("sample = %+v", samples[0])
	}
	// Dates normalize to first of month.
	if got := samples[1].Date.Format("2006-01-02"); got != "2023-06-01" {
		t.Errorf("date = %s, want 2023-06-01", got)
	}
}

func TestParseSourceCSV_RainDefVariant(t *testing.T) {
	csv := "basin_id,date,rain_def\n1041,2023-06,12.5\n"
	samples, _, err := ParseSourceCSV(strings.NewReader(csv), "imerg")
	if err != nil {
		t.Fatalf("ParseSourceCSV: %v", err)
	}
	if samples[0].Variable != "rain_def" {
		t.Errorf("variable = %q, want rain_def", samples[0].Variable)
	}
}

func TestParseSourceCSV_RejectsBadRows(t *testing.T) {
	csv := `basin_id,date,sm
1041,2023-06,0.18
,2023-06,0.2
1042,not-a-date,0.2
1043,2023-06,junk
1044,2023-06,NaN
1045,2023-06,+Inf
`
	samples, stats, err := ParseSourceCSV(strings.NewReader(csv), "era5")
	if err != nil {
		t.Fatalf("ParseSourceCSV: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	if stats.Rejected[RejectEmptyBasin] != 1 {
		t.Errorf("empty_basin = %d, want 1", stats.Rejected[RejectEmptyBasin])
	}
	if stats.Rejected[RejectBadDate] != 1 {
		t.Errorf("bad_date = %d, want 1", stats.Rejected[RejectBadDate])
	}
	if stats.Rejected[RejectBadValue] != 1 {
		t.Errorf("bad_value = %d, want 1", stats.Rejected[RejectBadValue])
	}
	if stats.Rejected[RejectNotFinite] != 2 {
		t.Errorf("not_finite = %d, want 2", stats.Rejected[RejectNotFinite])
	}
}

func TestParseSourceCSV_NoValueColumn(t *testing.T) {
	_, _, err := ParseSourceCSV(strings.NewReader("basin_id,date,foo\n1,2023-06,1\n"), "grace")
	if err == nil {
		t.Fatal("expected error for unknown value column")
	}
}

func TestParseSourceCSV_NoBasinColumn(t *testing.T) {
	_, _, err := ParseSourceCSV(strings.NewReader("id,date,twsa\n1,2023-06,1\n"), "grace")
	if err == nil {
		t.Fatal("expected error for missing basin_id column")
	}
}
