package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each one says what the tool does, when to reach for it and how to read
// what comes back.

func describeScanBlocks() string {
	return `Locates function-like blocks (functions, methods, arrow functions) and their line spans.

USE WHEN:
- Finding where a function starts and ends before editing it
- Spotting long functions that are candidates for splitting
- Getting parameter names without reading the whole file

INTERPRETING RESULTS:
- line_start/line_end are 1-based and inclusive
- A block without line_end could not be closed within the scan window
- approximate=true means the end was estimated; verify before relying on it
- long_blocks lists spans above the threshold, longest first

METRICS RETURNED:
- blocks: file, name, line_start, line_end, params
- long_blocks: the subset longer than threshold lines
- warnings: unterminated blocks, parse failures, truncated files`
}

func describeListImports() string {
	return `Extracts import statements, require calls and re-exports from source files.

USE WHEN:
- Checking what a file depends on before moving or renaming it
- Finding which names a file pulls from a module
- Auditing third-party specifiers in a set of files

INTERPRETING RESULTS:
- kind is one of import, side-effect, require, re-export, py-import or py-from
- names holds the bound identifiers; "*" marks a namespace import
- module is reported verbatim and is not resolved to a file
- level counts the leading dots of a relative Python import

METRICS RETURNED:
- imports: file, line, kind, module, names
- warnings: unreadable or truncated files`
}

func describeAnalyzeGraph() string {
	return `Builds the file-level import graph of a project and groups it into modules.

USE WHEN:
- Understanding how a codebase is layered
- Finding which modules a module talks to
- Getting a stable fingerprint to detect structural change between runs

INTERPRETING RESULTS:
- Only imports that resolve to project files become edges
- Module names come from role directories (models, services, ...) or the first path segment
- imported_by is the reverse of imports; every file appears in both maps
- Identical fingerprints mean identical graphs

METRICS RETURNED:
- graph.imports / graph.imported_by: file adjacency
- modules: files, imports_from and imported_by per module
- fingerprint, warnings`
}

func describeFindCycles() string {
	return `Detects circular dependencies between modules.

USE WHEN:
- Reviewing architecture for layering violations
- Explaining import-order bugs or initialization problems
- Planning which dependency to invert to break a loop

INTERPRETING RESULTS:
- Each cycle is a sorted group of modules that can all reach each other
- A module importing itself counts as a cycle of one
- order is only present when there are no cycles; dependencies come first

METRICS RETURNED:
- cycles: list of module groups
- order: topological module order (acyclic projects only)`
}

func describeBlastRadius() string {
	return `Lists the files that depend on one file, split into direct and indirect dependents.

USE WHEN:
- Estimating how far an edit to a file can reach
- Deciding what to re-test after a change
- Finding callers of a shared utility before changing its signature

INTERPRETING RESULTS:
- direct: files importing the target
- indirect: files reaching it through other files, up to depth hops
- Each dependent appears once, at its shortest distance
- An unknown target yields no dependents and a target warning

METRICS RETURNED:
- target, depth, direct, indirect, warnings`
}

func describePredictImpact() string {
	return `Predicts the impact of editing a set of files: dependents, risk level, affected tests and next steps.

USE WHEN:
- Before starting a change, to scope review and testing
- Reviewing a pull request or uncommitted work (set changed=true)
- Choosing which tests to run first

INTERPRETING RESULTS:
- level: low (< 2 direct dependents), medium (>= 2), high (>= 5), critical (> 10 or an entry point or config file)
- affected_tests are matched by file name and content, with same-directory fallback
- recommendations are ordered and capped at six

METRICS RETURNED:
- targets, impact_summary (level, direct, indirect, total)
- dependency_tree: blast radius per target
- affected_tests, recommendations, warnings`
}

// toolCatalog lists the registered tools in registration order.
var toolCatalog = []struct {
	name     string
	describe func() string
}{
	{"scan_blocks", describeScanBlocks},
	{"list_imports", describeListImports},
	{"analyze_graph", describeAnalyzeGraph},
	{"find_cycles", describeFindCycles},
	{"blast_radius", describeBlastRadius},
	{"predict_impact", describePredictImpact},
}
