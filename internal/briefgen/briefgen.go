// Package briefgen produces the shareable monthly brief artifacts: a
// rendered summary card, and an optional generated narrative when an
// OpenAI key is configured.
package briefgen

import (
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

// Summary is the material a brief is built from: one month's class tally
// and the worst basins.
type Summary struct {
	Month  string // "2006-01-02", first of month
	Counts models.ClassCounts
	Top    []asi.RankedBasin
}
