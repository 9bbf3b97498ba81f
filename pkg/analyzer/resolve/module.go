package resolve

import "strings"

// Namer derives module names from file paths.
//
// The derivation is a path-convention heuristic, not a guarantee: when no
// segment names a structural role it falls back to the first segment, so
// unrelated top-level directories with the same name share a module.
type Namer struct {
	roles      map[string]string
	containers map[string]struct{}
}

// DefaultRoles are the structural-role directory names.
var DefaultRoles = []string{
	"controllers", "services", "models", "utils", "routes", "middlewares",
	"middleware", "config", "repositories", "repository", "hooks", "store",
	"stores", "pages", "components",
}

// DefaultContainers are the top-level directories that wrap real modules.
var DefaultContainers = []string{"src", "app", "lib", "server", "backend", "frontend"}

// NewNamer builds a Namer. `middleware` is always reported as `middlewares`.
func NewNamer(roles, containers []string) *Namer {
	n := &Namer{
		roles:      make(map[string]string, len(roles)),
		containers: make(map[string]struct{}, len(containers)),
	}
	for _, r := range roles {
		r = strings.ToLower(r)
		name := r
		if r == "middleware" {
			name = "middlewares"
		}
		n.roles[r] = name
	}
	for _, c := range containers {
		n.containers[strings.ToLower(c)] = struct{}{}
	}
	return n
}

// DefaultNamer uses DefaultRoles and DefaultContainers.
func DefaultNamer() *Namer {
	return NewNamer(DefaultRoles, DefaultContainers)
}

// ModuleName returns the module of a project-relative file path.
func (n *Namer) ModuleName(file string) string {
	var segments []string
	for _, s := range strings.Split(strings.ReplaceAll(file, "\\", "/"), "/") {
		if s != "" && s != "." {
			segments = append(segments, strings.ToLower(s))
		}
	}
	if len(segments) == 0 {
		return "root"
	}
	for _, s := range segments {
		if name, ok := n.roles[s]; ok {
			return name
		}
	}
	if _, ok := n.containers[segments[0]]; ok && len(segments) > 1 {
		return segments[1]
	}
	return segments[0]
}

// ModuleName derives a module name with the default roles and containers.
func ModuleName(file string) string {
	return defaultNamer.ModuleName(file)
}

var defaultNamer = DefaultNamer()
