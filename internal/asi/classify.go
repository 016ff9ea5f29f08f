package asi

// Classification thresholds for the Aquifer Storage Index. An ASI at or
// below AlertThreshold means severe storage deficit; at or below
// WatchThreshold means emerging deficit.
const (
	AlertThreshold = -1.0
	WatchThreshold = -0.5
)

// Class labels as they appear in asi_table.csv and API responses.
const (
	ClassAlert  = "alert"
	ClassWatch  = "watch"
	ClassNormal = "normal"
	ClassNoData = "no-data"
)

// Classify maps an ASI value to its class.
//
//	alert  iff asi <= -1.0
//	watch  iff -1.0 < asi <= -0.5
//	normal iff asi > -0.5
func Classify(asi float64) string {
	switch {
	case asi <= AlertThreshold:
		return ClassAlert
	case asi <= WatchThreshold:
		return ClassWatch
	default:
		return ClassNormal
	}
}

// ClassifyNullable handles a missing index value, which classifies as
// "no-data" rather than any severity level.
func ClassifyNullable(asi *float64) string {
	if asi == nil {
		return ClassNoData
	}
	return Classify(*asi)
}
