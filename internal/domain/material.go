package domain

// MaterialSummary is the per-stage material balance derived from the
// allocation and consumption ledgers
type MaterialSummary struct {
	Stage     string  `json:"stage"`
	Allocated float64 `json:"allocated"`
	Consumed  float64 `json:"consumed"`
	Remaining float64 `json:"remaining"`
}

// ItemSummary is the material balance for a single item within a stage
type ItemSummary struct {
	Item      string  `json:"item"`
	Unit      string  `json:"unit"`
	Allocated float64 `json:"allocated"`
	Consumed  float64 `json:"consumed"`
	Remaining float64 `json:"remaining"`
}

// SummarizeMaterial folds a stage's ledgers into totals. Remaining can go
// negative when consumption exceeded allocation.
func SummarizeMaterial(si *StageInstance) MaterialSummary {
	summary := MaterialSummary{Stage: si.StageName}
	for _, a := range si.Allocations {
		summary.Allocated += a.Quantity
	}
	for _, c := range si.Consumptions {
		summary.Consumed += c.Quantity
	}
	summary.Remaining = summary.Allocated - summary.Consumed
	return summary
}

// SummarizeMaterialByItem breaks a stage's ledgers down per item, preserving
// first-seen item order
func SummarizeMaterialByItem(si *StageInstance) []ItemSummary {
	order := make([]string, 0, len(si.Allocations))
	byItem := make(map[string]*ItemSummary)

	get := func(item, unit string) *ItemSummary {
		if s, ok := byItem[item]; ok {
			if s.Unit == "" {
				s.Unit = unit
			}
			return s
		}
		s := &ItemSummary{Item: item, Unit: unit}
		byItem[item] = s
		order = append(order, item)
		return s
	}

	for _, a := range si.Allocations {
		get(a.Item, a.Unit).Allocated += a.Quantity
	}
	for _, c := range si.Consumptions {
		get(c.Item, c.Unit).Consumed += c.Quantity
	}

	result := make([]ItemSummary, 0, len(order))
	for _, item := range order {
		s := byItem[item]
		s.Remaining = s.Allocated - s.Consumed
		result = append(result, *s)
	}
	return result
}
