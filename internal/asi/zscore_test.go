package asi

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestZScores(t *testing.T) {
	got := ZScores([]*float64{fp(1), fp(2), fp(3)})
	// mean 2, population sd sqrt(2/3)
	sd := math.Sqrt(2.0 / 3.0)
	want := []float64{-1 / sd, 0, 1 / sd}
	for i := range want {
		if got[i] == nil {
			t.Fatalf("z[%d] = nil, want %v", i, want[i])
		}
		if math.Abs(*got[i]-want[i]) > 1e-9 {
			t.Errorf("z[%d] = %v, want %v", i, *got[i], want[i])
		}
	}
}

func TestZScores_MissingValuesStayMissing(t *testing.T) {
	got := ZScores([]*float64{fp(10), nil, fp(20)})
	if got[1] != nil {
		t.Errorf("z[1] = %v, want nil", *got[1])
	}
	if got[0] == nil || got[2] == nil {
		t.Fatal("present values must get z-scores")
	}
	// mean 15, sd 5
	if math.Abs(*got[0]+1) > 1e-9 || math.Abs(*got[2]-1) > 1e-9 {
		t.Errorf("z = (%v, %v), want (-1, 1)", *got[0], *got[2])
	}
}

func TestZScores_ZeroVariance(t *testing.T) {
	got := ZScores([]*float64{fp(5), fp(5), fp(5)})
	for i, z := range got {
		if z != nil {
			t.Errorf("z[%d] = %v, want nil for flat series", i, *z)
		}
	}
}

func TestZScores_AllMissing(t *testing.T) {
	got := ZScores([]*float64{nil, nil})
	for i, z := range got {
		if z != nil {
			t.Errorf("z[%d] = %v, want nil", i, *z)
		}
	}
}

func TestComposite(t *testing.T) {
	tests := []struct {
		name             string
		twsa, sm, rain   *float64
		want             *float64
	}{
		{
			name: "all components present",
			twsa: fp(-1), sm: fp(-2), rain: fp(1),
			want: fp((-0.4 - 0.8 + 0.2) / 1.0),
		},
		{
			name: "rain missing renormalizes over 0.8",
			twsa: fp(-1), sm: fp(-1), rain: nil,
			want: fp(-1),
		},
		{
			name: "only twsa present",
			twsa: fp(-1.5), sm: nil, rain: nil,
			want: fp(-1.5),
		},
		{
			name: "all missing yields nil",
			twsa: nil, sm: nil, rain: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Composite(tt.twsa, tt.sm, tt.rain)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Composite() = %v, want %v", got, tt.want)
			}
			if got != nil && math.Abs(*got-*tt.want) > 1e-9 {
				t.Errorf("Composite() = %v, want %v", *got, *tt.want)
			}
		})
	}
}
