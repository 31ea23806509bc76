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
	"fmt"
	"io"
	"strings"
)

// PrintCycles writes one line per detected cycle (SCC of size >= 2),
// ordered by sorted representative, members name-sorted and comma-joined.
func (r *Report[T]) PrintCycles(w io.Writer) {
	if len(r.Cycles) == 0 {
		fmt.Fprintln(w, "no cycles detected")
		return
	}
	for _, scc := range r.Cycles {
		names := make([]string, len(scc))
		for i, n := range scc {
			names[i] = r.Name(n)
		}
		fmt.Fprintf(w, "cycle: %s\n", strings.Join(names, ", "))
	}
}

// PrintLevels writes each level group, ascending, one line per node.
func (r *Report[T]) PrintLevels(w io.Writer) {
	for _, group := range r.LevelGroups() {
		fmt.Fprintf(w, "level %d:\n", group.Level)
		for _, n := range group.Nodes {
			fmt.Fprintf(w, "\t%s\n", r.Name(n))
		}
	}
}

// PrintSummary writes N, CCD, ACCD, NCCD.
func (r *Report[T]) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "N: %d\n", r.N)
	fmt.Fprintf(w, "CCD: %d\n", r.CCD)
	fmt.Fprintf(w, "ACCD: %.4f\n", r.ACCD)
	fmt.Fprintf(w, "NCCD: %.4f\n", r.NCCD)
}

// WriteDot writes a DOT representation of the condensation: every
// multi-node SCC (cycle) is coalesced into a single cluster node labeled
// with its sorted member names; every other node appears as itself. scope
// names the digraph.
func (r *Report[T]) WriteDot(w io.Writer, scope string) {
	fmt.Fprintf(w, "digraph %s {\n", dotIdent(scope))

	dotNodeID := func(i int) string { return fmt.Sprintf("scc_%d", i) }
	for i, scc := range r.SCCs {
		label := r.Name(scc[0])
		if len(scc) >= 2 {
			names := make([]string, len(scc))
			for j, n := range scc {
				names[j] = r.Name(n)
			}
			label = strings.Join(names, ", ")
		}
		shape := "box"
		if len(scc) >= 2 {
			shape = "tripleoctagon"
		}
		fmt.Fprintf(w, "  %s [label=%q, shape=%s];\n", dotNodeID(i), label, shape)
	}

	for i, deps := range r.condensationEdges {
		for _, j := range deps {
			fmt.Fprintf(w, "  %s -> %s;\n", dotNodeID(i), dotNodeID(j))
		}
	}
	fmt.Fprintln(w, "}")
}

func dotIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "g"
	}
	return b.String()
}
