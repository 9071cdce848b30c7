package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codigix/passion-clothing-sub006/internal/domain"
)

// stagePlanFile is the on-disk shape of the stage plan catalog
type stagePlanFile struct {
	Plans []stagePlanYAML `yaml:"plans"`
}

type stagePlanYAML struct {
	ProductType string      `yaml:"productType"`
	Stages      []stageYAML `yaml:"stages"`
}

type stageYAML struct {
	Name            string           `yaml:"name"`
	PlannedDuration string           `yaml:"plannedDuration"`
	Checkpoints     []string         `yaml:"checkpoints"`
	Allocations     []allocationYAML `yaml:"allocations"`
}

type allocationYAML struct {
	Item     string  `yaml:"item"`
	Quantity float64 `yaml:"quantity"`
	Unit     string  `yaml:"unit"`
}

// PlanCatalog holds the stage plans for every known product type. The catalog
// is loaded once at startup; units copy their plan at creation so catalog
// reloads never affect units in flight.
type PlanCatalog struct {
	plans map[string]domain.StagePlan
}

// LoadPlanCatalog reads and validates a YAML stage plan catalog
func LoadPlanCatalog(path string) (*PlanCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage plan catalog: %w", err)
	}
	return ParsePlanCatalog(data)
}

// ParsePlanCatalog parses a YAML stage plan catalog from raw bytes
func ParsePlanCatalog(data []byte) (*PlanCatalog, error) {
	var file stagePlanFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse stage plan catalog: %w", err)
	}
	if len(file.Plans) == 0 {
		return nil, fmt.Errorf("stage plan catalog has no plans")
	}

	catalog := &PlanCatalog{plans: make(map[string]domain.StagePlan, len(file.Plans))}
	for _, p := range file.Plans {
		if p.ProductType == "" {
			return nil, fmt.Errorf("stage plan without productType")
		}
		if _, exists := catalog.plans[p.ProductType]; exists {
			return nil, fmt.Errorf("duplicate stage plan for product type %q", p.ProductType)
		}
		if len(p.Stages) == 0 {
			return nil, fmt.Errorf("stage plan %q has no stages", p.ProductType)
		}

		plan := domain.StagePlan{ProductType: p.ProductType}
		seen := make(map[string]bool, len(p.Stages))
		for _, s := range p.Stages {
			if s.Name == "" {
				return nil, fmt.Errorf("stage plan %q has a stage without a name", p.ProductType)
			}
			if seen[s.Name] {
				return nil, fmt.Errorf("stage plan %q repeats stage %q", p.ProductType, s.Name)
			}
			seen[s.Name] = true

			duration, err := time.ParseDuration(s.PlannedDuration)
			if err != nil {
				return nil, fmt.Errorf("stage plan %q stage %q: invalid plannedDuration %q: %w",
					p.ProductType, s.Name, s.PlannedDuration, err)
			}
			if duration <= 0 {
				return nil, fmt.Errorf("stage plan %q stage %q: plannedDuration must be positive",
					p.ProductType, s.Name)
			}

			tmpl := domain.StageTemplate{
				Name:            s.Name,
				PlannedDuration: duration,
				Checkpoints:     s.Checkpoints,
			}
			for _, a := range s.Allocations {
				if a.Quantity <= 0 {
					return nil, fmt.Errorf("stage plan %q stage %q: allocation %q must be positive",
						p.ProductType, s.Name, a.Item)
				}
				tmpl.Allocations = append(tmpl.Allocations, domain.PlannedAllocation{
					Item:     a.Item,
					Quantity: a.Quantity,
					Unit:     a.Unit,
				})
			}
			plan.Stages = append(plan.Stages, tmpl)
		}
		catalog.plans[p.ProductType] = plan
	}
	return catalog, nil
}

// Plan returns the stage plan for a product type
func (c *PlanCatalog) Plan(productType string) (domain.StagePlan, bool) {
	plan, ok := c.plans[productType]
	return plan, ok
}

// ProductTypes returns all product types known to the catalog
func (c *PlanCatalog) ProductTypes() []string {
	types := make([]string, 0, len(c.plans))
	for pt := range c.plans {
		types = append(types, pt)
	}
	return types
}
