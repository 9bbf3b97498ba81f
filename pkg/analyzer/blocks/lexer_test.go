package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexState_CountBraces(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantOpens  int
		wantCloses int
	}{
		{"plain", "function f() {", 1, 0},
		{"balanced", "const o = { a: { b: 1 } };", 2, 2},
		{"single quoted", "const s = '{';", 0, 0},
		{"double quoted", `const s = "}}";`, 0, 0},
		{"template", "const s = `${x} {`;", 0, 0},
		{"escaped quote", `const s = "a\"{"; {`, 1, 0},
		{"line comment", "if (x) { // }", 1, 0},
		{"inline block comment", "/* { */ }", 0, 1},
		{"division is not a comment", "const r = a / b; {", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s LexState
			opens, closes := s.CountBraces(tt.line)
			assert.Equal(t, tt.wantOpens, opens, "opens")
			assert.Equal(t, tt.wantCloses, closes, "closes")
			assert.False(t, s.Active(), "state should be closed at end of line")
		})
	}
}

func TestLexState_CarriesAcrossLines(t *testing.T) {
	var s LexState

	opens, closes := s.CountBraces("/* start {")
	assert.Equal(t, 0, opens)
	assert.Equal(t, 0, closes)
	assert.True(t, s.BlockComment)

	opens, closes = s.CountBraces("still } inside")
	assert.Equal(t, 0, opens+closes)

	opens, closes = s.CountBraces("end */ {")
	assert.Equal(t, 1, opens)
	assert.Equal(t, 0, closes)
	assert.False(t, s.Active())

	s.CountBraces("const tpl = `line one {")
	assert.True(t, s.Template)
	opens, closes = s.CountBraces("} line two` }")
	assert.Equal(t, 0, opens)
	assert.Equal(t, 1, closes)
	assert.False(t, s.Active())
}

func TestLexState_EscapeResetsPerLine(t *testing.T) {
	var s LexState
	s.CountBraces(`const s = "trailing \`)
	assert.True(t, s.Double)

	// The escape does not swallow the first character of the next line.
	s.CountBraces(`" {`)
	assert.False(t, s.Active())
}
