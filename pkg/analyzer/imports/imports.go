// Package imports pulls raw module specifiers out of source files.
//
// Extraction is regular-expression based and line oriented. It recognises the
// common statement shapes of each language family but does not parse them;
// unusual formatting (a specifier split across lines, imports built at
// runtime) is missed rather than guessed at.
package imports

import (
	"sort"
	"strings"

	"github.com/panbanda/reach/pkg/analyzer/blocks"
	"github.com/panbanda/reach/pkg/models"
)

// MaxStatementLines bounds how many lines a multi-line import is joined over.
const MaxStatementLines = 50

// Extract returns the import references in content, deduplicated on
// (specifier, sorted names) and ordered by line, then specifier.
func Extract(file string, content []byte, family models.Family) []models.ImportReference {
	lines := blocks.SplitLines(content)
	var refs []models.ImportReference
	switch family {
	case models.FamilyCurly:
		refs = extractCurly(file, lines)
	case models.FamilyIndented:
		refs = extractIndented(file, lines)
	default:
		return nil
	}
	return Dedupe(refs)
}

// Dedupe drops references that repeat an earlier (specifier, names) pair and
// sorts the rest by line, then specifier.
func Dedupe(refs []models.ImportReference) []models.ImportReference {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].Specifier < refs[j].Specifier
	})

	seen := make(map[string]struct{}, len(refs))
	var out []models.ImportReference
	for _, r := range refs {
		r.Specifier = strings.TrimSpace(r.Specifier)
		if r.Specifier == "" {
			continue
		}
		k := dedupeKey(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func dedupeKey(r models.ImportReference) string {
	names := make([]string, len(r.Names))
	copy(names, r.Names)
	sort.Strings(names)
	return r.Specifier + "\x00" + strings.Join(names, "\x00")
}

// Specifiers returns the distinct specifiers of refs in order.
func Specifiers(refs []models.ImportReference) []string {
	seen := make(map[string]struct{}, len(refs))
	var out []string
	for _, r := range refs {
		if _, ok := seen[r.Specifier]; ok {
			continue
		}
		seen[r.Specifier] = struct{}{}
		out = append(out, r.Specifier)
	}
	return out
}
