package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestEvaluateCheckpoints(t *testing.T) {
	tests := []struct {
		name           string
		checkpoints    []CheckpointRecord
		wantPassed     bool
		wantUnresolved []string
	}{
		{
			name:        "no checkpoints passes trivially",
			checkpoints: nil,
			wantPassed:  true,
		},
		{
			name: "all passed",
			checkpoints: []CheckpointRecord{
				{Name: "seam_strength", Result: boolPtr(true)},
				{Name: "stitch_density", Result: boolPtr(true)},
			},
			wantPassed: true,
		},
		{
			name: "unchecked checkpoint blocks",
			checkpoints: []CheckpointRecord{
				{Name: "seam_strength", Result: boolPtr(true)},
				{Name: "stitch_density"},
			},
			wantPassed:     false,
			wantUnresolved: []string{"stitch_density"},
		},
		{
			name: "failed checkpoint blocks",
			checkpoints: []CheckpointRecord{
				{Name: "seam_strength", Result: boolPtr(false)},
				{Name: "stitch_density", Result: boolPtr(true)},
			},
			wantPassed:     false,
			wantUnresolved: []string{"seam_strength"},
		},
		{
			name: "failed and unchecked both reported",
			checkpoints: []CheckpointRecord{
				{Name: "seam_strength", Result: boolPtr(false)},
				{Name: "stitch_density"},
				{Name: "color_match", Result: boolPtr(true)},
			},
			wantPassed:     false,
			wantUnresolved: []string{"seam_strength", "stitch_density"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			si := &StageInstance{StageName: "sewing", Checkpoints: tt.checkpoints}
			result := EvaluateCheckpoints(si)

			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Equal(t, tt.wantUnresolved, result.Unresolved)
			assert.Equal(t, len(tt.checkpoints), result.Total)
		})
	}
}
