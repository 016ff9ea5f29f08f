package asi

// Component weights for the composite index. Satellite storage and soil
// moisture dominate; rainfall is a supporting signal.
const (
	WeightTWSA = 0.4
	WeightSM   = 0.4
	WeightRain = 0.2
)

// Composite combines the component z-scores into the ASI. Weights are
// renormalized over the components actually present, so a month with only
// twsa_z still yields an index instead of dropping the basin. Returns nil
// when every component is missing.
func Composite(twsaZ, smZ, rainZ *float64) *float64 {
	var num, den float64
	if twsaZ != nil {
		num += WeightTWSA * *twsaZ
		den += WeightTWSA
	}
	if smZ != nil {
		num += WeightSM * *smZ
		den += WeightSM
	}
	if rainZ != nil {
		num += WeightRain * *rainZ
		den += WeightRain
	}
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}
