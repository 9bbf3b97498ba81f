package graph

import (
	"slices"
	"sort"

	"github.com/panbanda/reach/pkg/models"
)

// frame is one suspended visit: the node and the position of the next
// neighbor to explore.
type frame struct {
	node int
	next int
}

// FindCycles returns the strongly connected components of adj that form
// cycles: components of two or more nodes, and single nodes with an edge to
// themselves. Members are sorted, and so is the list.
//
// The traversal is Tarjan's algorithm driven by an explicit frame stack, so
// graph depth is bounded by memory rather than the goroutine stack.
func FindCycles(adj models.Adjacency) []models.SCCGroup {
	nodes := adj.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	id := make(map[string]int, len(nodes))
	for i, n := range nodes {
		id[n] = i
	}

	succ := make([][]int, len(nodes))
	selfLoop := make([]bool, len(nodes))
	for from, tos := range adj {
		f := id[from]
		for _, to := range tos {
			t := id[to]
			if t == f {
				selfLoop[f] = true
			}
			succ[f] = append(succ[f], t)
		}
	}
	for i := range succ {
		sort.Ints(succ[i])
	}

	index := make([]int, len(nodes))
	low := make([]int, len(nodes))
	onStack := make([]bool, len(nodes))
	for i := range index {
		index[i] = -1
	}

	var (
		counter int
		stack   []int
		frames  []frame
		groups  []models.SCCGroup
	)
	visit := func(v int) {
		index[v], low[v] = counter, counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		frames = append(frames, frame{node: v})
	}

	for root := range nodes {
		if index[root] != -1 {
			continue
		}
		visit(root)

		for len(frames) > 0 {
			top := &frames[len(frames)-1]
			v := top.node

			if top.next < len(succ[v]) {
				w := succ[v][top.next]
				top.next++
				switch {
				case index[w] == -1:
					visit(w)
				case onStack[w]:
					low[v] = min(low[v], index[w])
				}
				continue
			}

			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				low[parent] = min(low[parent], low[v])
			}
			if low[v] != index[v] {
				continue
			}

			var members []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				members = append(members, w)
				if w == v {
					break
				}
			}
			if len(members) < 2 && !selfLoop[v] {
				continue
			}
			group := make(models.SCCGroup, len(members))
			for i, m := range members {
				group[i] = nodes[m]
			}
			sort.Strings(group)
			groups = append(groups, group)
		}
	}

	slices.SortFunc(groups, func(a, b models.SCCGroup) int {
		return slices.Compare(a, b)
	})
	return groups
}
