package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/briefgen"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

func sampleSummary() briefgen.Summary {
	return briefgen.Summary{
		Month:  "2023-06-01",
		Counts: models.ClassCounts{Alert: 2, Watch: 3, Normal: 20, NoData: 1},
		Top: []asi.RankedBasin{
			{BasinID: "A", Name: "Ferlo", ASI: -1.624, Class: "alert", Date: "2023-06-01"},
			{BasinID: "B", Name: "Saloum", ASI: -1.2, Class: "alert", Date: "2023-06-01"},
		},
	}
}

func TestWritePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.pdf")
	if err := WritePDF(path, sampleSummary(), "Stress worsened in the north."); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output is not a PDF, starts with %q", data[:8])
	}
}

func TestWritePDF_NoNarrative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.pdf")
	if err := WritePDF(path, sampleSummary(), ""); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
}

func TestWriteTopCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top10.csv")
	s := sampleSummary()
	if err := WriteTopCSV(path, s.Top); err != nil {
		t.Fatalf("WriteTopCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3 (header + 2 rows)", len(records))
	}
	if records[1][1] != "Ferlo" || records[1][2] != "-1.624" {
		t.Errorf("first row = %v", records[1])
	}
	if records[2][2] != "-1.200" {
		t.Errorf("asi formatting = %q, want -1.200", records[2][2])
	}
}
