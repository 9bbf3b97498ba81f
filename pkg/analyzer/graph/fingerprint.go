package graph

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/panbanda/reach/pkg/models"
)

// Fingerprint hashes the canonical form of g: every file in order, each
// followed by its sorted imports. Equal graphs give equal fingerprints.
func Fingerprint(g *models.Graph) string {
	d := xxhash.New()
	for _, f := range g.Files() {
		_, _ = d.WriteString(f)
		_, _ = d.WriteString("\x00")
		for _, to := range g.Forward[f] {
			_, _ = d.WriteString(to)
			_, _ = d.WriteString("\x01")
		}
		_, _ = d.WriteString("\n")
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
