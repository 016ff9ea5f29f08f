package asi

import "math"

// Round3 rounds to three decimals, the precision the table and API expose.
// Nil passes through.
func Round3(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*1000) / 1000
	return &r
}
