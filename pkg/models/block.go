package models

// BlockSpan is a function-like block found in a file.
// Lines are 1-based. An EndLine of zero means the end could not be determined.
type BlockSpan struct {
	File        string   `json:"file" toon:"file"`
	Name        string   `json:"name,omitempty" toon:"name,omitempty"`
	StartLine   int      `json:"line_start" toon:"line_start"`
	EndLine     int      `json:"line_end,omitempty" toon:"line_end,omitempty"`
	Params      []string `json:"params,omitempty" toon:"params,omitempty"`
	Approximate bool     `json:"approximate,omitempty" toon:"approximate,omitempty"`
}

// Resolved reports whether the span has a known end line.
func (b BlockSpan) Resolved() bool {
	return b.EndLine > 0
}

// Length returns the number of lines covered by the span, or 0 when unresolved.
func (b BlockSpan) Length() int {
	if !b.Resolved() {
		return 0
	}
	return b.EndLine - b.StartLine + 1
}
