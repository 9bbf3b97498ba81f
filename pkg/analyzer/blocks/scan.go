// Package blocks locates function-like block spans.
//
// Curly-family sources (JavaScript, TypeScript) are approximated with a
// guarded lexical scan: braces inside comments, strings and template literals
// are ignored, and a block that cannot be closed within a bounded window is
// either estimated or reported. Indented-family sources (Python) are read from
// a tree-sitter syntax tree.
package blocks

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"github.com/panbanda/reach/pkg/models"
	"github.com/panbanda/reach/pkg/parser"
)

// DefaultLongBlockLines is the span length above which a block counts as long.
const DefaultLongBlockLines = 50

// Options tune the curly-family scan. Zero values select the defaults.
type Options struct {
	Window      int
	FallbackCap int
}

// DefaultOptions returns the default scan options.
func DefaultOptions() Options {
	return Options{Window: DefaultWindow, FallbackCap: DefaultFallbackCap}
}

// Scan finds the blocks in content. Problems are returned as warnings; Scan
// never fails.
func Scan(file string, content []byte, family models.Family, opts Options) ([]models.BlockSpan, []models.Warning) {
	if family != models.FamilyIndented {
		return ScanWith(context.Background(), nil, file, content, family, opts)
	}
	psr := parser.New()
	defer psr.Close()
	return ScanWith(context.Background(), psr, file, content, family, opts)
}

// ScanWith is Scan with a caller-owned parser, used for the indented family.
func ScanWith(ctx context.Context, psr *parser.Parser, file string, content []byte, family models.Family, opts Options) ([]models.BlockSpan, []models.Warning) {
	var (
		spans    []models.BlockSpan
		warnings []models.Warning
	)
	switch family {
	case models.FamilyCurly:
		spans, warnings = scanCurly(file, SplitLines(content), opts)
	case models.FamilyIndented:
		if psr == nil {
			psr = parser.New()
			defer psr.Close()
		}
		spans, warnings = scanIndented(ctx, psr, file, content)
	default:
		return nil, nil
	}
	return dedupeSpans(spans), warnings
}

func scanCurly(file string, lines []string, opts Options) ([]models.BlockSpan, []models.Warning) {
	loc := Locator{Window: opts.Window, FallbackCap: opts.FallbackCap}

	var (
		spans    []models.BlockSpan
		warnings []models.Warning
		state    LexState
	)
	for i, line := range lines {
		inside := state.Active()
		state.CountBraces(line)
		if inside {
			continue
		}

		sig, ok := MatchSignature(line)
		if !ok {
			continue
		}
		end, ok := loc.Locate(lines, i)
		if !ok {
			continue
		}
		if end.Unterminated() && HasUnclosedBlock(lines, i, end.Line) {
			warnings = append(warnings, models.Warnf(models.WarnUnterminated, file, i+1,
				"JS/TS block parse failed for %s:%d", file, i+1))
			continue
		}
		spans = append(spans, models.BlockSpan{
			File:        file,
			Name:        sig.Name,
			StartLine:   i + 1,
			EndLine:     end.Line + 1,
			Params:      sig.Params,
			Approximate: !end.Exact,
		})
	}
	return spans, warnings
}

// dedupeSpans drops repeated (name, start, end) spans and sorts by start line,
// then name.
func dedupeSpans(spans []models.BlockSpan) []models.BlockSpan {
	type key struct {
		name       string
		start, end int
	}
	seen := make(map[key]struct{}, len(spans))
	out := spans[:0]
	for _, s := range spans {
		k := key{s.Name, s.StartLine, s.EndLine}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartLine != out[j].StartLine {
			return out[i].StartLine < out[j].StartLine
		}
		return out[i].Name < out[j].Name
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// LongBlocks returns the spans longer than threshold lines, longest first.
// A threshold below one selects DefaultLongBlockLines.
func LongBlocks(spans []models.BlockSpan, threshold int) []models.BlockSpan {
	if threshold < 1 {
		threshold = DefaultLongBlockLines
	}
	var long []models.BlockSpan
	for _, s := range spans {
		if s.Length() > threshold {
			long = append(long, s)
		}
	}
	sort.SliceStable(long, func(i, j int) bool {
		if long[i].Length() != long[j].Length() {
			return long[i].Length() > long[j].Length()
		}
		if long[i].File != long[j].File {
			return long[i].File < long[j].File
		}
		return long[i].StartLine < long[j].StartLine
	})
	return long
}

// SplitLines splits content into lines without their terminators.
// Carriage returns before a newline are dropped.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	content = bytes.TrimSuffix(content, []byte("\n"))
	lines := strings.Split(string(content), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
