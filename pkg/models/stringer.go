package models

// String methods for all custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// Family
func (f Family) String() string { return string(f) }

// ImportKind
func (k ImportKind) String() string { return string(k) }

// WarningKind
func (k WarningKind) String() string { return string(k) }

// ImpactLevel
func (l ImpactLevel) String() string { return string(l) }
