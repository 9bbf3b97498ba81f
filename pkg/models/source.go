package models

// Family groups languages by how their block structure is recovered.
type Family string

const (
	// FamilyCurly covers brace-delimited languages (JavaScript, TypeScript, JSX, TSX).
	// Blocks are found by guarded lexical scanning.
	FamilyCurly Family = "curly"
	// FamilyIndented covers indentation-delimited languages (Python).
	// Blocks are read from a syntax tree.
	FamilyIndented Family = "indented"
	// FamilyUnknown marks files that take part in the graph as targets only.
	FamilyUnknown Family = "unknown"
)

// SourceFile is a candidate file supplied by the enumerator.
type SourceFile struct {
	Path     string `json:"path" toon:"path"` // project-relative, forward slashes
	Language string `json:"language" toon:"language"`
	Family   Family `json:"family" toon:"family"`
	Lines    int    `json:"lines" toon:"lines"`
}

// FileScan is the stage-one result for one file: everything that can be
// learned from its own content, before any cross-file resolution.
type FileScan struct {
	File      string            `json:"file" toon:"file"`
	Lines     int               `json:"lines" toon:"lines"`
	Truncated bool              `json:"truncated,omitempty" toon:"truncated,omitempty"`
	Imports   []ImportReference `json:"imports" toon:"imports"`
	Spans     []BlockSpan       `json:"spans,omitempty" toon:"spans,omitempty"`
	Warnings  []Warning         `json:"warnings,omitempty" toon:"warnings,omitempty"`
}
