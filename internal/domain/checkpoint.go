package domain

// GateResult is the outcome of evaluating a stage's quality gate
type GateResult struct {
	Passed     bool     `json:"passed"`
	Total      int      `json:"total"`
	Resolved   int      `json:"resolved"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// EvaluateCheckpoints evaluates the quality gate for a stage. The gate passes
// only when every checkpoint on the stage has an explicit passing result; a
// stage with no checkpoints passes trivially. Unresolved lists checkpoints
// that are unchecked or failed.
func EvaluateCheckpoints(si *StageInstance) GateResult {
	result := GateResult{Total: len(si.Checkpoints)}
	for _, cp := range si.Checkpoints {
		if cp.Result != nil {
			result.Resolved++
		}
		if cp.Result == nil || !*cp.Result {
			result.Unresolved = append(result.Unresolved, cp.Name)
		}
	}
	result.Passed = len(result.Unresolved) == 0
	return result
}
