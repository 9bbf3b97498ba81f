package models

// ImpactLevel grades the predicted blast radius of a change.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// Score orders levels from low (0) to critical (3).
func (l ImpactLevel) Score() int {
	switch l {
	case ImpactMedium:
		return 1
	case ImpactHigh:
		return 2
	case ImpactCritical:
		return 3
	default:
		return 0
	}
}

// ImpactSummary aggregates dependents across all targets.
type ImpactSummary struct {
	Level              ImpactLevel `json:"level" toon:"level"`
	DirectDependents   int         `json:"direct_dependents" toon:"direct_dependents"`
	IndirectDependents int         `json:"indirect_dependents" toon:"indirect_dependents"`
	TotalBlastRadius   int         `json:"total_blast_radius" toon:"total_blast_radius"`
}

// Impact is the predicted effect of editing a set of files.
type Impact struct {
	Targets         []string               `json:"targets" toon:"targets"`
	Summary         ImpactSummary          `json:"impact_summary" toon:"impact_summary"`
	DependencyTree  map[string]BlastRadius `json:"dependency_tree" toon:"dependency_tree"`
	AffectedTests   []string               `json:"affected_tests" toon:"affected_tests"`
	Recommendations []string               `json:"recommendations" toon:"recommendations"`
	Warnings        []Warning              `json:"warnings,omitempty" toon:"warnings,omitempty"`
}
