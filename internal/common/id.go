package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewRunID generates a unique run ID with the "run_" prefix.
// The UTC timestamp component sorts lexicographically in creation order, so
// listing run IDs yields runs oldest-first without a secondary index.
// Format: run_<yyyymmddThhmmss.nnnnnnnnn>_<uuid-fragment>
func NewRunID(now time.Time) string {
	return fmt.Sprintf("run_%s_%s",
		now.UTC().Format("20060102T150405.000000000"),
		uuid.New().String()[:8])
}
