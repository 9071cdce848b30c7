package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalog = `
plans:
  - productType: shirt
    stages:
      - name: cutting
        plannedDuration: 4h
        allocations:
          - item: fabric
            quantity: 12
            unit: m
      - name: sewing
        plannedDuration: 8h
        checkpoints:
          - seam_strength
          - stitch_density
      - name: packing
        plannedDuration: 1h
  - productType: trousers
    stages:
      - name: cutting
        plannedDuration: 6h
      - name: sewing
        plannedDuration: 10h
`

func TestParsePlanCatalog(t *testing.T) {
	catalog, err := ParsePlanCatalog([]byte(validCatalog))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"shirt", "trousers"}, catalog.ProductTypes())

	plan, ok := catalog.Plan("shirt")
	require.True(t, ok)
	require.Len(t, plan.Stages, 3)
	assert.Equal(t, []string{"cutting", "sewing", "packing"}, plan.StageNames())
	assert.Equal(t, 4*time.Hour, plan.Stages[0].PlannedDuration)
	assert.Equal(t, []string{"seam_strength", "stitch_density"}, plan.Stages[1].Checkpoints)
	require.Len(t, plan.Stages[0].Allocations, 1)
	assert.Equal(t, 12.0, plan.Stages[0].Allocations[0].Quantity)

	_, ok = catalog.Plan("jacket")
	assert.False(t, ok)
}

func TestParsePlanCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty catalog", `plans: []`},
		{"missing product type", `
plans:
  - stages:
      - name: cutting
        plannedDuration: 4h
`},
		{"no stages", `
plans:
  - productType: shirt
    stages: []
`},
		{"duplicate stage name", `
plans:
  - productType: shirt
    stages:
      - name: cutting
        plannedDuration: 4h
      - name: cutting
        plannedDuration: 2h
`},
		{"bad duration", `
plans:
  - productType: shirt
    stages:
      - name: cutting
        plannedDuration: soon
`},
		{"negative allocation", `
plans:
  - productType: shirt
    stages:
      - name: cutting
        plannedDuration: 4h
        allocations:
          - item: fabric
            quantity: -1
            unit: m
`},
		{"duplicate product type", `
plans:
  - productType: shirt
    stages:
      - name: cutting
        plannedDuration: 4h
  - productType: shirt
    stages:
      - name: sewing
        plannedDuration: 2h
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlanCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
