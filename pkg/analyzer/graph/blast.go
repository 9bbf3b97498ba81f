package graph

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/reach/pkg/models"
)

// ComputeBlastRadius walks reverse edges breadth-first from target.
// Dependents at distance 1 are direct; those at distance 2 through depth are
// indirect. A depth below 1 is treated as 1. Every node is reported at most
// once, at its shortest distance, and target never reports itself.
func ComputeBlastRadius(reverse models.Adjacency, target string, depth int) models.BlastRadius {
	if depth < 1 {
		depth = 1
	}
	br := models.BlastRadius{Target: target, Depth: depth, Direct: []string{}, Indirect: []string{}}

	ids := make(map[string]uint32)
	intern := func(n string) uint32 {
		if i, ok := ids[n]; ok {
			return i
		}
		i := uint32(len(ids))
		ids[n] = i
		return i
	}

	visited := roaring.New()
	visited.Add(intern(target))
	frontier := []string{target}

	for dist := 1; dist <= depth && len(frontier) > 0; dist++ {
		var next []string
		for _, n := range frontier {
			for _, dep := range reverse[n] {
				i := intern(dep)
				if visited.Contains(i) {
					continue
				}
				visited.Add(i)
				next = append(next, dep)
				if dist == 1 {
					br.Direct = append(br.Direct, dep)
				} else {
					br.Indirect = append(br.Indirect, dep)
				}
			}
		}
		frontier = next
	}

	sort.Strings(br.Direct)
	sort.Strings(br.Indirect)
	return br
}
