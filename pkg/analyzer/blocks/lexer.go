package blocks

// LexState tracks the lexical context of a curly-family scan across lines.
// At most one of the flags is set at a time. The zero value is the state at
// the start of a file.
type LexState struct {
	BlockComment bool
	Single       bool
	Double       bool
	Template     bool
}

// Active reports whether the scanner is inside a comment, string or template.
func (s *LexState) Active() bool {
	return s.BlockComment || s.Single || s.Double || s.Template
}

// CountBraces scans one line, updating s, and returns the number of opening
// and closing braces that appear outside comments, strings and templates.
// A line comment hides only the rest of its own line. Escapes never carry
// over to the next line.
func (s *LexState) CountBraces(line string) (opens, closes int) {
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		var next byte
		if i+1 < len(line) {
			next = line[i+1]
		}

		switch {
		case s.BlockComment:
			if ch == '*' && next == '/' {
				s.BlockComment = false
				i++
			}
			continue
		case s.Single, s.Double, s.Template:
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if s.closes(ch) {
				s.Single, s.Double, s.Template = false, false, false
			}
			continue
		}

		switch ch {
		case '/':
			if next == '/' {
				return opens, closes
			}
			if next == '*' {
				s.BlockComment = true
				i++
			}
		case '\'':
			s.Single = true
		case '"':
			s.Double = true
		case '`':
			s.Template = true
		case '{':
			opens++
		case '}':
			closes++
		}
	}
	return opens, closes
}

func (s *LexState) closes(ch byte) bool {
	switch {
	case s.Single:
		return ch == '\''
	case s.Double:
		return ch == '"'
	case s.Template:
		return ch == '`'
	}
	return false
}
