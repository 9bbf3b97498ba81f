package models

import (
	"fmt"
	"sort"
)

// WarningKind classifies a non-fatal analysis problem.
type WarningKind string

const (
	WarnParse        WarningKind = "parse"
	WarnUnterminated WarningKind = "unterminated"
	WarnTruncated    WarningKind = "truncated"
	WarnIO           WarningKind = "io"
	WarnTarget       WarningKind = "target"
)

// Warning is a soft failure surfaced to the caller. Analysis always continues.
type Warning struct {
	File    string      `json:"file,omitempty" toon:"file,omitempty"`
	Line    int         `json:"line,omitempty" toon:"line,omitempty"`
	Kind    WarningKind `json:"kind" toon:"kind"`
	Message string      `json:"message" toon:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// Warnf builds a warning with a formatted message.
func Warnf(kind WarningKind, file string, line int, format string, args ...any) Warning {
	return Warning{File: file, Line: line, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WarningSet collects warnings, dropping duplicates. The zero value is ready to use.
// It is not safe for concurrent use.
type WarningSet struct {
	seen  map[Warning]struct{}
	items []Warning
}

// Add records warnings not seen before.
func (s *WarningSet) Add(ws ...Warning) {
	if s.seen == nil {
		s.seen = make(map[Warning]struct{})
	}
	for _, w := range ws {
		if _, ok := s.seen[w]; ok {
			continue
		}
		s.seen[w] = struct{}{}
		s.items = append(s.items, w)
	}
}

// Len returns the number of distinct warnings.
func (s *WarningSet) Len() int {
	return len(s.items)
}

// Sorted returns the warnings ordered by file, line, kind and message.
func (s *WarningSet) Sorted() []Warning {
	out := make([]Warning, len(s.items))
	copy(out, s.items)
	SortWarnings(out)
	return out
}

// SortWarnings orders warnings deterministically in place.
func SortWarnings(ws []Warning) {
	sort.Slice(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
}
