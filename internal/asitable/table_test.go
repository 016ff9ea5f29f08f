package asitable

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"
	"time"
)

const sampleCSV = `basin_id,date,twsa,sm,rain,rain_def,twsa_z,sm_z,rain_z,rain_def_z,asi,class
1041,2023-05-01,-4.2,0.18,52.5,,-1.31,-0.42,0.11,-0.11,-0.671,watch
1041,2023-06-01,-6.9,0.12,,,-2.05,-1.8,,,-1.925,alert
1042,2023-06-01,,,,,,,,,,no-data
`

func TestRead(t *testing.T) {
	rows, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	first := rows[0]
	if first.BasinID != "1041" {
		t.Errorf("BasinID = %q, want 1041", first.BasinID)
	}
	if !first.Date.Equal(time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", first.Date)
	}
	if !first.TWSA.Valid || first.TWSA.Float64 != -4.2 {
		t.Errorf("TWSA = %+v, want -4.2", first.TWSA)
	}
	if first.RainDef.Valid {
		t.Error("empty rain_def cell should be NULL")
	}
	if first.Class != "watch" {
		t.Errorf("Class = %q, want watch", first.Class)
	}

	empty := rows[2]
	if empty.ASI.Valid {
		t.Error("no-data row should have NULL asi")
	}
	if empty.Class != "no-data" {
		t.Errorf("Class = %q, want no-data", empty.Class)
	}
}

func TestRoundTrip(t *testing.T) {
	rows, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		t.Fatalf("Write: %v", err)
	}

	again, err := Read(&buf)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if len(again) != len(rows) {
		t.Fatalf("row count changed: %d -> %d", len(rows), len(again))
	}

	for i := range rows {
		a, b := rows[i], again[i]
		if a.BasinID != b.BasinID || !a.Date.Equal(b.Date) || a.Class != b.Class {
			t.Errorf("row %d identity changed: %+v vs %+v", i, a, b)
		}
		pairs := []struct {
			name string
			x, y sql.NullFloat64
		}{
			{"twsa", a.TWSA, b.TWSA},
			{"sm", a.SM, b.SM},
			{"rain", a.Rain, b.Rain},
			{"rain_def", a.RainDef, b.RainDef},
			{"twsa_z", a.TWSAZ, b.TWSAZ},
			{"sm_z", a.SMZ, b.SMZ},
			{"rain_z", a.RainZ, b.RainZ},
			{"rain_def_z", a.RainDefZ, b.RainDefZ},
			{"asi", a.ASI, b.ASI},
		}
		for _, p := range pairs {
			if p.x != p.y {
				t.Errorf("row %d %s changed: %+v vs %+v", i, p.name, p.x, p.y)
			}
		}
	}
}

func TestRead_RejectsBadHeader(t *testing.T) {
	_, err := Read(strings.NewReader("basin,date\n1,2023-05-01\n"))
	if err == nil {
		t.Fatal("expected error for wrong header")
	}
}

func TestRead_RejectsBadFloat(t *testing.T) {
	bad := strings.Replace(sampleCSV, "-4.2", "junk", 1)
	_, err := Read(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for unparseable value")
	}
}
