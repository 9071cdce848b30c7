package domain

import "time"

// PlannedAllocation is a default material reservation seeded onto a stage at
// unit creation
type PlannedAllocation struct {
	Item     string  `yaml:"item" json:"item"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
	Unit     string  `yaml:"unit" json:"unit"`
}

// StageTemplate describes one stage of a product type's routing
type StageTemplate struct {
	Name            string              `yaml:"name" json:"name"`
	PlannedDuration time.Duration       `yaml:"plannedDuration" json:"plannedDuration"`
	Checkpoints     []string            `yaml:"checkpoints" json:"checkpoints"`
	Allocations     []PlannedAllocation `yaml:"allocations" json:"allocations"`
}

// StagePlan is the ordered routing a product type moves through. Each unit
// copies the plan at creation; later plan edits never affect units in flight.
type StagePlan struct {
	ProductType string          `yaml:"productType" json:"productType"`
	Stages      []StageTemplate `yaml:"stages" json:"stages"`
}

// StageNames returns the plan's stage names in routing order
func (p StagePlan) StageNames() []string {
	names := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		names = append(names, s.Name)
	}
	return names
}
