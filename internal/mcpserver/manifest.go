package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	manifestName   = "io.github.panbanda/reach"
	imageRepo      = "ghcr.io/panbanda/reach"
	publisherKey   = "io.modelcontextprotocol.registry/publisher-provided"
)

// Manifest is the registry entry (server.json) for the reach MCP server.
type Manifest struct {
	Schema      string             `json:"$schema"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Version     string             `json:"version"`
	Repository  *Repository        `json:"repository,omitempty"`
	Packages    []Package          `json:"packages,omitempty"`
	Meta        map[string]Catalog `json:"_meta,omitempty"`
}

type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package runs the server image with the mcp subcommand over stdio.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVariable `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

type EnvVariable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
	Format      string `json:"format,omitempty"`
}

type Transport struct {
	Type string `json:"type"`
}

// Catalog advertises the tools and prompts the server registers.
type Catalog struct {
	Tools   []ToolSummary `json:"tools"`
	Prompts []string      `json:"prompts"`
}

// ToolSummary is a tool name with the first line of its description.
type ToolSummary struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// GenerateManifest builds server.json for version.
func GenerateManifest(version string) ([]byte, error) {
	version = manifestVersion(version)

	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        manifestName,
		Description: "Import graphs, dependency cycles, blast radius and change impact for JavaScript, TypeScript and Python projects",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/reach",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType:     "oci",
				Identifier:       imageRepo + ":" + version,
				PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
				EnvironmentVariables: []EnvVariable{
					{Name: "REACH_CONFIG", Description: "Path to a reach config file (TOML, YAML or JSON)", Format: "filepath"},
				},
				Transport: Transport{Type: "stdio"},
			},
		},
		Meta: map[string]Catalog{publisherKey: catalog()},
	}

	return json.MarshalIndent(manifest, "", "  ")
}

// manifestVersion drops a leading "v". Builds without a release version,
// such as "dev", are published as 0.0.0 prereleases.
func manifestVersion(version string) string {
	version = strings.TrimPrefix(version, "v")
	switch {
	case version == "":
		return "0.0.0"
	case version[0] < '0' || version[0] > '9':
		return "0.0.0-" + version
	}
	return version
}

func catalog() Catalog {
	c := Catalog{Prompts: []string{}}
	for _, t := range toolCatalog {
		summary, _, _ := strings.Cut(t.describe(), "\n")
		c.Tools = append(c.Tools, ToolSummary{Name: t.name, Summary: summary})
	}
	for _, p := range loadPrompts() {
		c.Prompts = append(c.Prompts, p.Name)
	}
	return c
}
