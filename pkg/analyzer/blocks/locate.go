package blocks

import "strings"

const (
	// DefaultWindow is how many lines past the start a block end is searched for.
	DefaultWindow = 2000
	// DefaultFallbackCap bounds a heuristic end when no sibling declaration is found.
	DefaultFallbackCap = 50
)

// BlockEnd is the outcome of LocateBlockEnd. Line is a 0-based index.
type BlockEnd struct {
	Line int
	// Exact is set when a matching close brace was found.
	Exact bool
	// Opened is set when a brace was opened inside the scan window.
	Opened bool
}

// Unterminated reports a block that opened but never closed within the window.
func (e BlockEnd) Unterminated() bool {
	return e.Opened && !e.Exact
}

// Locator finds block ends using a bounded scan window.
type Locator struct {
	Window      int
	FallbackCap int
}

var siblingPrefixes = []string{"export ", "function ", "class ", "const ", "let ", "var "}

var destructuringPrefixes = []string{"const {", "const [", "let {"}

// LocateBlockEnd uses DefaultWindow and DefaultFallbackCap.
func LocateBlockEnd(lines []string, start int) (BlockEnd, bool) {
	return Locator{}.Locate(lines, start)
}

// Locate returns the line where the block opened at start closes. When no
// close is found in the window the end is estimated as the line before the
// next sibling declaration at the same or shallower indentation, or as a
// fixed cap past the start. ok is false only for an out-of-range start.
func (l Locator) Locate(lines []string, start int) (BlockEnd, bool) {
	if start < 0 || start >= len(lines) {
		return BlockEnd{}, false
	}
	window := l.Window
	if window <= 0 {
		window = DefaultWindow
	}
	limit := min(start+window, len(lines))

	var state LexState
	depth := 0
	opened := false
	for i := start; i < limit; i++ {
		opens, closes := state.CountBraces(lines[i])
		if opens > 0 {
			opened = true
		}
		depth += opens - closes
		if opened && depth <= 0 {
			return BlockEnd{Line: i, Exact: true, Opened: true}, true
		}
	}

	return BlockEnd{Line: l.fallback(lines, start, limit), Opened: opened}, true
}

func (l Locator) fallback(lines []string, start, limit int) int {
	startIndent := indentOf(lines[start])
	for i := start + 1; i < limit; i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if trimmed == "" || !isSiblingDecl(trimmed) {
			continue
		}
		if indentOf(lines[i]) <= startIndent {
			return max(i-1, start)
		}
	}

	capLines := l.FallbackCap
	if capLines <= 0 {
		capLines = DefaultFallbackCap
	}
	return min(start+capLines, len(lines)-1)
}

func isSiblingDecl(trimmed string) bool {
	for _, p := range destructuringPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return false
		}
	}
	for _, p := range siblingPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// HasUnclosedBlock reports whether lines[start..end] open more braces than
// they close.
func HasUnclosedBlock(lines []string, start, end int) bool {
	if start < 0 {
		start = 0
	}
	limit := min(end+1, len(lines))

	var state LexState
	depth := 0
	opened := false
	for i := start; i < limit; i++ {
		opens, closes := state.CountBraces(lines[i])
		if opens > 0 {
			opened = true
		}
		depth += opens - closes
	}
	return opened && depth > 0
}
