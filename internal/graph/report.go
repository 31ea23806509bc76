// Copyright 2025 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graph

import (
	"math"
	"sort"
)

// Report is the result of analyzing a Graph: its cycles, its level
// assignment, and its CCD/ACCD/NCCD metrics.
type Report[T comparable] struct {
	Name func(T) string

	// SCCs lists every strongly connected component, name-sorted within
	// each SCC and ordered by sorted representative across SCCs.
	SCCs [][]T

	// Cycles is the subset of SCCs with two or more members -- the
	// findings reported to the user.
	Cycles [][]T

	// Level maps each node to its condensation level; sinks are level 1.
	Level map[T]int

	N    int
	CCD  int
	ACCD float64
	NCCD float64

	// condensationEdges[i] holds the sorted SCC indices that SCC i (an
	// index into SCCs) has a direct edge into. Kept for DOT emission.
	condensationEdges [][]int
}

// Analyze runs SCC detection, condensation, levelization, and CCD/ACCD/NCCD
// computation over g.
func (g *Graph[T]) Analyze(name func(T) string) *Report[T] {
	sccs := g.FindStronglyConnectedComponents()
	sortSCCMembers(sccs, name)

	sccOf := make(map[T]int, len(g.nodes))
	for i, scc := range sccs {
		for _, n := range scc {
			sccOf[n] = i
		}
	}

	// Condensation adjacency: sccAdj[i] is the set of distinct SCC indices
	// that SCC i has an edge into.
	sccAdj := make([]map[int]struct{}, len(sccs))
	for i := range sccs {
		sccAdj[i] = map[int]struct{}{}
	}
	for _, scc := range sccs {
		i := sccOf[scc[0]]
		for _, n := range scc {
			for _, p := range g.peers(n) {
				j := sccOf[p]
				if j != i {
					sccAdj[i][j] = struct{}{}
				}
			}
		}
	}

	// sccs is already in reverse topological order (sinks first): for any
	// condensation edge i -> j, j was emitted before i. That means when we
	// process SCCs in emission order, every SCC an SCC depends on has
	// already been processed, so levels and reachable-sets can be computed
	// in one forward pass with no further ordering work.
	level := make([]int, len(sccs))
	reachable := make([]map[int]struct{}, len(sccs))
	for i := range sccs {
		maxDepLevel := 0
		reach := map[int]struct{}{}
		for j := range sccAdj[i] {
			if level[j] > maxDepLevel {
				maxDepLevel = level[j]
			}
			reach[j] = struct{}{}
			for k := range reachable[j] {
				reach[k] = struct{}{}
			}
		}
		level[i] = maxDepLevel + 1
		reachable[i] = reach
	}

	nodeLevel := make(map[T]int, len(g.nodes))
	ccd := 0
	n := 0
	for i, scc := range sccs {
		size := len(scc)
		n += size
		reachOutNodes := 0
		for j := range reachable[i] {
			reachOutNodes += len(sccs[j])
		}
		ccd += size * (size + reachOutNodes)
		for _, node := range scc {
			nodeLevel[node] = level[i]
		}
	}

	// Levels, reachability, and CCD are now final; everything from here on
	// is purely about display order. Reorder the SCCs by sorted
	// representative (the order documented on Report.SCCs) and remap the
	// condensation edges, which were built against emission-order indices,
	// to match.
	order := make([]int, len(sccs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return name(sccs[order[a]][0]) < name(sccs[order[b]][0])
	})
	newIndex := make([]int, len(sccs))
	displaySCCs := make([][]T, len(sccs))
	for newIdx, oldIdx := range order {
		newIndex[oldIdx] = newIdx
		displaySCCs[newIdx] = sccs[oldIdx]
	}

	var cycles [][]T
	for _, scc := range displaySCCs {
		if len(scc) >= 2 {
			cycles = append(cycles, scc)
		}
	}

	condensationEdges := make([][]int, len(sccs))
	for oldIdx, adj := range sccAdj {
		edges := make([]int, 0, len(adj))
		for j := range adj {
			edges = append(edges, newIndex[j])
		}
		sort.Ints(edges)
		condensationEdges[newIndex[oldIdx]] = edges
	}

	r := &Report[T]{
		Name:              name,
		SCCs:              displaySCCs,
		Cycles:            cycles,
		Level:             nodeLevel,
		N:                 n,
		CCD:               ccd,
		condensationEdges: condensationEdges,
	}
	if n > 0 {
		r.ACCD = float64(ccd) / float64(n)
		r.NCCD = float64(ccd) / balancedTreeCCD(n)
	}
	return r
}

// balancedTreeCCD is Lakos's reference CCD for a balanced binary tree of n
// nodes, used to normalize CCD into NCCD: (n+1)*log2(n+1) - n.
func balancedTreeCCD(n int) float64 {
	nf := float64(n)
	return (nf+1)*math.Log2(nf+1) - nf
}

// LevelGroups returns the report's nodes grouped by level, ascending, each
// group name-sorted.
func (r *Report[T]) LevelGroups() []LevelGroup[T] {
	byLevel := map[int][]T{}
	for node, lvl := range r.Level {
		byLevel[lvl] = append(byLevel[lvl], node)
	}
	levels := make([]int, 0, len(byLevel))
	for lvl := range byLevel {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	groups := make([]LevelGroup[T], len(levels))
	for i, lvl := range levels {
		nodes := byLevel[lvl]
		sort.Slice(nodes, func(a, b int) bool { return r.Name(nodes[a]) < r.Name(nodes[b]) })
		groups[i] = LevelGroup[T]{Level: lvl, Nodes: nodes}
	}
	return groups
}

// LevelGroup is the set of nodes sharing one condensation level.
type LevelGroup[T comparable] struct {
	Level int
	Nodes []T
}
