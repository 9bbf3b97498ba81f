package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptDefaults fill placeholders the caller left empty.
var promptDefaults = map[string]string{
	"root":  ".",
	"depth": "2",
	"files": "",
}

// promptFrontmatter is parsed from YAML frontmatter in prompt files.
type promptFrontmatter struct {
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
}

type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// promptTemplate is one embedded prompt file.
type promptTemplate struct {
	Name string
	promptFrontmatter
	Body string
}

// loadPrompts reads every embedded prompt, sorted by name. Files with
// malformed frontmatter are skipped.
func loadPrompts() []promptTemplate {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil
	}

	var out []promptTemplate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			continue
		}
		fm, body, ok := parseFrontmatter(content)
		if !ok {
			continue
		}
		out = append(out, promptTemplate{
			Name:              strings.TrimSuffix(entry.Name(), ".md"),
			promptFrontmatter: fm,
			Body:              body,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// registerPrompts registers every embedded prompt with the server.
func (s *Server) registerPrompts() {
	for _, p := range loadPrompts() {
		prompt := &mcp.Prompt{
			Name:        p.Name,
			Description: p.Description,
		}
		for _, a := range p.Arguments {
			prompt.Arguments = append(prompt.Arguments, &mcp.PromptArgument{
				Name:        a.Name,
				Description: a.Description,
				Required:    a.Required,
			})
		}
		s.server.AddPrompt(prompt, makePromptHandler(p))
	}
}

// parseFrontmatter splits YAML frontmatter from the body. ok is false when
// the frontmatter is missing or does not parse.
func parseFrontmatter(content []byte) (fm promptFrontmatter, body string, ok bool) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, string(content), false
	}

	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return fm, string(content), false
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, string(content), false
	}
	return fm, strings.TrimPrefix(string(rest[end+5:]), "\n"), true
}

// substituteArg replaces {{key}} in text with the caller's value, or with
// defaultVal when the caller gave none.
func substituteArg(text, key string, args map[string]string, defaultVal string) string {
	val := args[key]
	if val == "" {
		val = defaultVal
	}
	return strings.ReplaceAll(text, "{{"+key+"}}", val)
}

func makePromptHandler(p promptTemplate) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		text := p.Body
		for key, def := range promptDefaults {
			text = substituteArg(text, key, args, def)
		}
		for _, a := range p.Arguments {
			text = substituteArg(text, a.Name, args, "")
		}

		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: text},
				},
			},
		}, nil
	}
}
