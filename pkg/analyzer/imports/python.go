package imports

import (
	"regexp"
	"strings"

	"github.com/panbanda/reach/pkg/models"
)

var (
	pyImportRe = regexp.MustCompile(`^\s*import\s+([A-Za-z_][\w.]*(?:\s+as\s+[A-Za-z_]\w*)?(?:\s*,\s*[A-Za-z_][\w.]*(?:\s+as\s+[A-Za-z_]\w*)?)*)`)
	pyFromRe   = regexp.MustCompile(`^\s*from\s+(\.+[\w.]*|[A-Za-z_][\w.]*)\s+import\s+(.+)$`)
)

func extractIndented(file string, lines []string) []models.ImportReference {
	var refs []models.ImportReference
	inDocstring := false
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if toggles := strings.Count(line, `"""`) + strings.Count(line, `'''`); toggles%2 == 1 {
			inDocstring = !inDocstring
			continue
		}
		if inDocstring {
			continue
		}
		code := stripHashComment(line)

		if m := pyFromRe.FindStringSubmatch(code); m != nil {
			clause := m[2]
			last := i
			if strings.HasPrefix(strings.TrimSpace(clause), "(") && !strings.Contains(clause, ")") {
				clause, last = joinParenthesized(lines, i, clause)
			}
			spec := m[1]
			level := len(spec) - len(strings.TrimLeft(spec, "."))
			refs = append(refs, models.ImportReference{
				File:      file,
				Specifier: spec,
				Names:     pythonNames(clause),
				Line:      i + 1,
				Kind:      models.ImportPythonFrom,
				Level:     level,
			})
			i = last
			continue
		}

		if m := pyImportRe.FindStringSubmatch(code); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				spec, name := splitAlias(part)
				if spec == "" {
					continue
				}
				if name == "" {
					name = spec[strings.LastIndexByte(spec, '.')+1:]
				}
				refs = append(refs, models.ImportReference{
					File:      file,
					Specifier: spec,
					Names:     []string{name},
					Line:      i + 1,
					Kind:      models.ImportPython,
				})
			}
		}
	}
	return refs
}

// joinParenthesized collects a `from x import (` list that spans lines.
func joinParenthesized(lines []string, start int, clause string) (string, int) {
	var b strings.Builder
	b.WriteString(clause)
	limit := min(start+MaxStatementLines, len(lines))
	for j := start + 1; j < limit; j++ {
		part := stripHashComment(lines[j])
		b.WriteByte(' ')
		b.WriteString(strings.TrimSpace(part))
		if strings.Contains(part, ")") {
			return b.String(), j
		}
	}
	return clause, start
}

// pythonNames returns the names bound by the clause after `import`.
func pythonNames(clause string) []string {
	clause = strings.TrimSpace(clause)
	clause = strings.TrimSuffix(strings.TrimPrefix(clause, "("), ")")
	clause = strings.TrimSuffix(strings.TrimSpace(clause), "\\")
	var names []string
	for _, part := range strings.Split(clause, ",") {
		name, alias := splitAlias(strings.Trim(part, "() "))
		if alias != "" {
			name = alias
		}
		if name != "" && name != "*" {
			names = append(names, name)
		}
	}
	return names
}

func splitAlias(part string) (name, alias string) {
	fields := strings.Fields(part)
	switch {
	case len(fields) == 0:
		return "", ""
	case len(fields) >= 3 && fields[1] == "as":
		return fields[0], fields[2]
	default:
		return fields[0], ""
	}
}

func stripHashComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}
