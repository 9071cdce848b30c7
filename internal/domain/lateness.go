package domain

import (
	"fmt"
	"time"
)

// IsLate reports whether a stage is late at the given instant. A stage with no
// planned end is never late; ending exactly at the planned end is on time.
func IsLate(si *StageInstance, at time.Time) bool {
	if si.PlannedEnd == nil {
		return false
	}
	return at.After(*si.PlannedEnd)
}

// DefaultLateReason builds the generated lateness reason from the overshoot
// past the planned end, rounded down to whole minutes
func DefaultLateReason(si *StageInstance, at time.Time) string {
	if si.PlannedEnd == nil {
		return ""
	}
	over := int(at.Sub(*si.PlannedEnd).Minutes())
	return fmt.Sprintf("exceeded planned end by %d minutes", over)
}
