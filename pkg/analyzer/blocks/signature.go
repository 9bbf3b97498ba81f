package blocks

import (
	"regexp"
	"strings"
)

// The signature shapes below approximate declaration syntax with regular
// expressions. Multi-line signatures, decorators and exotic generics are not
// recognised; such lines are simply skipped.
var signaturePatterns = []*regexp.Regexp{
	// [export] [async] function name(
	regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function(?:\s*\*\s*|\s+)([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\(`),
	// const name = [async] (...) =>
	regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s*)?(?:<[^>]*>\s*)?\([^()]*(?:\([^()]*\)[^()]*)*\)\s*(?::[^=]+)?=>`),
	// const name = [async] x =>
	regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?[A-Za-z_$][\w$]*\s*=>`),
	// [modifiers] name(...) {
	regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|readonly|override|get|set)\s+)*\*?([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\([^;]*\)\s*(?::[^{;]+)?\{`),
}

const shapeBareArrow = 2

var singleArrowParam = regexp.MustCompile(`=\s*(?:async\s*)?([A-Za-z_$][\w$]*)\s*=>`)

var reservedWords = map[string]struct{}{
	"if":     {},
	"for":    {},
	"while":  {},
	"switch": {},
	"catch":  {},
	"return": {},
	"new":    {},
	"else":   {},
	"try":    {},
}

// Signature is a declaration recognised on a single line.
type Signature struct {
	Name      string
	RawParams string
	Params    []string
}

// MatchSignature tries each declaration shape in order and returns the first
// whose captured name is not a control-flow keyword.
func MatchSignature(line string) (Signature, bool) {
	for shape, re := range signaturePatterns {
		m := re.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		name := line[m[2]:m[3]]
		if _, reserved := reservedWords[name]; reserved {
			continue
		}
		raw := rawParams(line, m[3], shape == shapeBareArrow)
		return Signature{Name: name, RawParams: raw, Params: ParseParams(raw)}, true
	}
	return Signature{}, false
}

// rawParams returns the parameter fragment following the name that ends at
// offset from.
func rawParams(line string, from int, bareArrow bool) string {
	if bareArrow {
		if m := singleArrowParam.FindStringSubmatch(line[from:]); m != nil {
			return m[1]
		}
	}
	open := strings.IndexByte(line[from:], '(')
	if open < 0 {
		return ""
	}
	open += from
	depth := 0
	for i := open; i < len(line); i++ {
		switch line[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return line[open+1 : i]
			}
		}
	}
	// Signature continues on the next line.
	return line[open+1:]
}

var annotatedParam = regexp.MustCompile(`^([A-Za-z_$][\w$]*)\??\s*:\s*.+$`)

// ParseParams splits a raw parameter fragment into names. Default values and
// type annotations are stripped; rest parameters lose their dots.
// Destructured parameters are kept verbatim.
func ParseParams(raw string) []string {
	var params []string
	for _, part := range splitTopLevel(raw) {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		token = strings.TrimLeft(strings.Trim(token, "() "), ".")
		if i := topLevelIndex(token, '='); i >= 0 {
			token = strings.TrimSpace(token[:i])
		}
		if m := annotatedParam.FindStringSubmatch(token); m != nil {
			token = m[1]
		}
		token = strings.TrimSpace(strings.Trim(token, "() "))
		if token == "" || token == "async" || token == "()" {
			continue
		}
		params = append(params, token)
	}
	return params
}

// splitTopLevel splits s on commas that are not nested in brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if s[i] == '>' && i > 0 && s[i-1] == '=' {
				continue
			}
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}

// topLevelIndex returns the first index of c outside brackets, or -1.
func topLevelIndex(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case c:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
