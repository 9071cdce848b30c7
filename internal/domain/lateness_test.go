package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsLate(t *testing.T) {
	plannedEnd := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		plannedEnd *time.Time
		at         time.Time
		want       bool
	}{
		{"before planned end", &plannedEnd, plannedEnd.Add(-time.Minute), false},
		{"exactly at planned end", &plannedEnd, plannedEnd, false},
		{"after planned end", &plannedEnd, plannedEnd.Add(time.Second), true},
		{"no planned end never late", nil, plannedEnd.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			si := &StageInstance{StageName: "sewing", PlannedEnd: tt.plannedEnd}
			assert.Equal(t, tt.want, IsLate(si, tt.at))
		})
	}
}

func TestDefaultLateReason(t *testing.T) {
	plannedEnd := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	si := &StageInstance{StageName: "sewing", PlannedEnd: &plannedEnd}

	assert.Equal(t, "exceeded planned end by 90 minutes",
		DefaultLateReason(si, plannedEnd.Add(90*time.Minute)))

	// partial minutes round down
	assert.Equal(t, "exceeded planned end by 1 minutes",
		DefaultLateReason(si, plannedEnd.Add(119*time.Second)))

	assert.Empty(t, DefaultLateReason(&StageInstance{}, plannedEnd))
}
