package models

// ImportKind identifies the statement form an import reference came from.
type ImportKind string

const (
	ImportFrom       ImportKind = "import"
	ImportSideEffect ImportKind = "side-effect"
	ImportRequire    ImportKind = "require"
	ImportReExport   ImportKind = "re-export"
	ImportPython     ImportKind = "py-import"
	ImportPythonFrom ImportKind = "py-from"
)

// ImportReference is one raw module specifier pulled out of an import statement.
type ImportReference struct {
	File      string     `json:"file" toon:"file"`
	Specifier string     `json:"module" toon:"module"`
	Names     []string   `json:"names,omitempty" toon:"names,omitempty"`
	Line      int        `json:"line" toon:"line"`
	Kind      ImportKind `json:"kind" toon:"kind"`
	// Level is the number of leading dots of a relative Python import.
	Level int `json:"level,omitempty" toon:"level,omitempty"`
}
