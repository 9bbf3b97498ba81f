package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSignature(t *testing.T) {
	tests := []struct {
		line       string
		wantName   string
		wantParams []string
	}{
		{"function add(a, b) {", "add", []string{"a", "b"}},
		{"export async function load(id: string): Promise<User> {", "load", []string{"id"}},
		{"export default function App() {", "App", nil},
		{"function* walk(node) {", "walk", []string{"node"}},
		{"const sum = (a, b = 0) => a + b;", "sum", []string{"a", "b"}},
		{"export const handler = async (req, res) => {", "handler", []string{"req", "res"}},
		{"let double = x => x * 2", "double", []string{"x"}},
		{"const run = async job => {", "run", []string{"job"}},
		{"  render(props: Props) {", "render", []string{"props"}},
		{"  private async fetchData(id: number, ...rest: string[]): Promise<void> {", "fetchData", []string{"id", "rest"}},
		{"  static create<T>(opts: Map<string, T>, cb = () => {}) {", "create", []string{"opts", "cb"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sig, ok := MatchSignature(tt.line)
			assert.True(t, ok)
			assert.Equal(t, tt.wantName, sig.Name)
			assert.Equal(t, tt.wantParams, sig.Params)
		})
	}
}

func TestMatchSignature_SkipsControlFlow(t *testing.T) {
	lines := []string{
		"if (ready) {",
		"  for (let i = 0; i < n; i++) {",
		"  while (queue.length) {",
		"  switch (kind) {",
		"  } catch (err) {",
		"  catch (err) {",
		"return (value) {",
		"const value = 42;",
		"class Widget {",
		"functionName(x);",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, ok := MatchSignature(line)
			assert.False(t, ok)
		})
	}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"a, b, c", []string{"a", "b", "c"}},
		{"a = 1, b = 'x'", []string{"a", "b"}},
		{"name: string, age?: number", []string{"name", "age"}},
		{"...args", []string{"args"}},
		{"x: Record<string, number>, y", []string{"x", "y"}},
		{"fn = (a, b) => a, z", []string{"fn", "z"}},
		{"async", nil},
		{"()", nil},
		{"{ a, b }, c", []string{"{ a, b }", "c"}},
		{"x", []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseParams(tt.raw))
		})
	}
}

func TestMatchSignature_AdversarialInputs(t *testing.T) {
	lines := []string{
		"const f = <T extends Array<Map<string, Set<number>>>>(x: T) => {",
		"function multi(",
		"  reallyLong(a,",
		"(((((((((((",
		"))))))))",
		"const = () =>",
	}

	for _, line := range lines {
		assert.NotPanics(t, func() { MatchSignature(line) }, line)
	}
}
