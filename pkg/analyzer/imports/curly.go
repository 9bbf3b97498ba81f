package imports

import (
	"regexp"
	"strings"

	"github.com/panbanda/reach/pkg/analyzer/blocks"
	"github.com/panbanda/reach/pkg/models"
)

var (
	importFromRe  = regexp.MustCompile(`^\s*import\s+(?:type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	sideEffectRe  = regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`)
	reExportRe    = regexp.MustCompile(`^\s*export\s+(?:type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	requireDeclRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(.+?)\s*=\s*require\(\s*['"]([^'"]+)['"]\s*\)`)
	requireRe     = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	openClauseRe  = regexp.MustCompile(`^\s*(?:import|export)\s+(?:type\s+)?(?:[\w$]+\s*,\s*)?\{[^}]*$`)
	stmtEndRe     = regexp.MustCompile(`(?:\bfrom\s+['"][^'"]+['"]|;)`)
)

func extractCurly(file string, lines []string) []models.ImportReference {
	var (
		refs  []models.ImportReference
		state blocks.LexState
	)
	for i := 0; i < len(lines); i++ {
		inside := state.Active()
		state.CountBraces(lines[i])
		if inside {
			continue
		}

		stmt := stripLineComment(lines[i])
		if openClauseRe.MatchString(stmt) {
			joined, last := joinStatement(lines, i)
			for j := i + 1; j <= last; j++ {
				state.CountBraces(lines[j])
			}
			refs = append(refs, matchCurly(file, i+1, joined)...)
			i = last
			continue
		}
		refs = append(refs, matchCurly(file, i+1, stmt)...)
	}
	return refs
}

// joinStatement joins lines from start until the statement names its source
// or ends, returning the joined text and the index of its last line.
func joinStatement(lines []string, start int) (string, int) {
	var b strings.Builder
	b.WriteString(stripLineComment(lines[start]))
	limit := min(start+MaxStatementLines, len(lines))
	for j := start + 1; j < limit; j++ {
		b.WriteByte(' ')
		part := strings.TrimSpace(stripLineComment(lines[j]))
		b.WriteString(part)
		if stmtEndRe.MatchString(part) {
			return b.String(), j
		}
	}
	return stripLineComment(lines[start]), start
}

// stripLineComment cuts a trailing // comment that is not inside a string.
func stripLineComment(line string) string {
	var quote byte
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			escaped = false
		case quote != 0:
			if ch == '\\' {
				escaped = true
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

func matchCurly(file string, line int, stmt string) []models.ImportReference {
	ref := func(spec string, kind models.ImportKind, names []string) models.ImportReference {
		return models.ImportReference{File: file, Specifier: spec, Names: names, Line: line, Kind: kind}
	}

	var refs []models.ImportReference
	switch {
	case importFromRe.MatchString(stmt):
		m := importFromRe.FindStringSubmatch(stmt)
		refs = append(refs, ref(m[2], models.ImportFrom, ParseClause(m[1])))
	case sideEffectRe.MatchString(stmt):
		m := sideEffectRe.FindStringSubmatch(stmt)
		refs = append(refs, ref(m[1], models.ImportSideEffect, nil))
	case reExportRe.MatchString(stmt):
		m := reExportRe.FindStringSubmatch(stmt)
		refs = append(refs, ref(m[2], models.ImportReExport, ParseClause(m[1])))
	}

	declared := ""
	if m := requireDeclRe.FindStringSubmatch(stmt); m != nil {
		declared = m[2]
		refs = append(refs, ref(m[2], models.ImportRequire, ParseClause(m[1])))
	}
	for _, m := range requireRe.FindAllStringSubmatch(stmt, -1) {
		if m[1] == declared {
			declared = ""
			continue
		}
		refs = append(refs, ref(m[1], models.ImportRequire, nil))
	}
	return refs
}

// ParseClause returns the local names bound by an import clause or a
// require destructuring pattern: a default name, a namespace alias, and the
// members of a braced list (renamed with `as` or `:`).
func ParseClause(clause string) []string {
	text := strings.TrimSpace(clause)
	if text == "" || text == "*" {
		return nil
	}

	var names []string
	if open := strings.IndexByte(text, '{'); open >= 0 {
		if def := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text[:open]), ",")); def != "" {
			names = append(names, def)
		}
		inside := text[open+1:]
		if closeIdx := strings.LastIndexByte(inside, '}'); closeIdx >= 0 {
			inside = inside[:closeIdx]
		}
		for _, part := range strings.Split(inside, ",") {
			if name := boundName(part); name != "" {
				names = append(names, name)
			}
		}
		return names
	}

	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(part, "* as "); ok {
			part = strings.TrimSpace(rest)
		}
		if part != "" && part != "*" {
			names = append(names, part)
		}
	}
	return names
}

func boundName(item string) string {
	item = strings.TrimSpace(item)
	item = strings.TrimPrefix(item, "type ")
	if _, alias, ok := strings.Cut(item, " as "); ok {
		return strings.TrimSpace(alias)
	}
	if _, alias, ok := strings.Cut(item, ":"); ok {
		item = strings.TrimSpace(alias)
	}
	if before, _, ok := strings.Cut(item, "="); ok {
		item = strings.TrimSpace(before)
	}
	return strings.TrimLeft(item, ".")
}
