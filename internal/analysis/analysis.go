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

// Package analysis orchestrates a full run: load configuration, pair
// files into components, resolve includes into dependency edges, then
// instantiate the graph engine over three independent populations --
// components within each package, packages within each multi-package
// internal group, and internal groups system-wide -- printing each and
// writing its DOT file.
package analysis

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-cppdep/cppdep/internal/collections"
	"github.com/go-cppdep/cppdep/internal/extcache"
	"github.com/go-cppdep/cppdep/internal/graph"
	"github.com/go-cppdep/cppdep/internal/model"
	"github.com/go-cppdep/cppdep/internal/pairing"
	"github.com/go-cppdep/cppdep/internal/pperr"
	"github.com/go-cppdep/cppdep/internal/resolve"
	"github.com/go-cppdep/cppdep/internal/xmlconfig"
)

// Options configures a Run.
type Options struct {
	ConfigPath string // path to the XML configuration file
	CachePath  string // path to the external-header cache; empty disables it
	DotDir     string // directory DOT files are written into; "" means cwd
}

// Result is everything a caller might want after a Run: the populated
// Analysis arena and every warning raised along the way, in the order
// pairing then resolution produced them. Run also returns a Result together
// with an error when a failure happens after the configuration has loaded.
type Result struct {
	Analysis *model.Analysis
	Warnings []string
}

// Run executes the full pipeline, writing human-readable reports to out
// and a .dot file per analyzed scope under opts.DotDir.
func Run(opts Options, out io.Writer) (*Result, error) {
	a, err := xmlconfig.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	var warnings []string

	pairWarnings, err := pairing.All(a)
	for _, w := range pairWarnings {
		warnings = append(warnings, w.Message)
	}
	if err != nil {
		return &Result{Analysis: a, Warnings: warnings}, err
	}

	var cache *extcache.Cache
	if opts.CachePath != "" {
		cache = extcache.Load(opts.CachePath)
	}
	resolveWarnings, err := resolve.New(a, cache).All()
	for _, w := range resolveWarnings {
		warnings = append(warnings, w.Message)
	}
	if err != nil {
		return &Result{Analysis: a, Warnings: warnings}, err
	}
	if cache != nil {
		// Losing the cache costs a future run some re-walking, not
		// correctness; don't fail the whole analysis over it.
		if saveErr := cache.Save(); saveErr != nil {
			warnings = append(warnings, fmt.Sprintf("failed to save external header cache: %v", saveErr))
		}
	}

	printLdep(a, out)

	dotDir := opts.DotDir
	if dotDir == "" {
		dotDir = "."
	}
	if err := analyzeComponents(a, out, dotDir); err != nil {
		return &Result{Analysis: a, Warnings: warnings}, err
	}
	if err := analyzePackages(a, out, dotDir); err != nil {
		return &Result{Analysis: a, Warnings: warnings}, err
	}
	if err := analyzeSystem(a, out, dotDir); err != nil {
		return &Result{Analysis: a, Warnings: warnings}, err
	}

	return &Result{Analysis: a, Warnings: warnings}, nil
}

// printLdep writes print_ldep: one "="-banner section per internal package
// (group then package, both name-sorted), each listing its components in
// pairing order, each component followed by its internal dependencies
// (name-sorted), an "(external)" marker, and its external dependencies
// formatted as <group>.<package> (name-sorted).
func printLdep(a *model.Analysis, w io.Writer) {
	var groupIDs []model.GroupID
	for gi := range a.Groups {
		if a.Group(model.GroupID(gi)).Role == model.Internal {
			groupIDs = append(groupIDs, model.GroupID(gi))
		}
	}
	sort.Slice(groupIDs, func(i, j int) bool {
		return a.Group(groupIDs[i]).Name < a.Group(groupIDs[j]).Name
	})

	for _, gid := range groupIDs {
		g := a.Group(gid)
		pkgIDs := append([]model.PackageID(nil), g.PackageIDs...)
		sort.Slice(pkgIDs, func(i, j int) bool {
			return a.Package(pkgIDs[i]).Name < a.Package(pkgIDs[j]).Name
		})

		for _, pid := range pkgIDs {
			pkg := a.Package(pid)
			fmt.Fprintln(w, strings.Repeat("=", 80))
			fmt.Fprintf(w, "package %s.%s dependency:\n", g.Name, pkg.Name)

			for _, compID := range pkg.Components {
				c := a.Component(compID)
				fmt.Fprintf(w, "%s:\n", c.Name)

				deps := make([]string, 0, len(c.DepsInternal))
				for dep := range c.DepsInternal {
					deps = append(deps, a.Component(dep).Name)
				}
				sort.Strings(deps)
				for _, d := range deps {
					fmt.Fprintf(w, "\t%s\n", d)
				}

				fmt.Fprintln(w, "  (external)")
				for _, d := range a.DepExternalPackages(c) {
					fmt.Fprintf(w, "\t%s\n", d)
				}
			}
		}
	}
}

// analyzeComponents instantiates the graph engine once per internal
// package, over that package's own components.
func analyzeComponents(a *model.Analysis, w io.Writer, dotDir string) error {
	for gi := range a.Groups {
		g := a.Group(model.GroupID(gi))
		if g.Role != model.Internal {
			continue
		}
		for _, pkgID := range g.PackageIDs {
			pkg := a.Package(pkgID)
			if len(pkg.Components) == 0 {
				continue
			}
			members := collections.ToSet(pkg.Components)
			gr := graph.New(pkg.Components, componentPeers(a, members))
			rep := gr.Analyze(func(id model.ComponentID) string { return a.Component(id).Name })

			scope := g.Name + "_" + pkg.Name
			printScope(w, scope, rep)
			if err := writeDot(dotDir, scope, rep); err != nil {
				return err
			}
		}
	}
	return nil
}

// analyzePackages instantiates the graph engine once per internal group
// that has more than one package, over that group's packages.
func analyzePackages(a *model.Analysis, w io.Writer, dotDir string) error {
	for gi := range a.Groups {
		g := a.Group(model.GroupID(gi))
		if g.Role != model.Internal || len(g.PackageIDs) < 2 {
			continue
		}
		members := collections.ToSet(g.PackageIDs)
		gr := graph.New(g.PackageIDs, packagePeers(a, members))
		rep := gr.Analyze(func(id model.PackageID) string { return a.Package(id).Name })

		printScope(w, g.Name, rep)
		if err := writeDot(dotDir, g.Name, rep); err != nil {
			return err
		}
	}
	return nil
}

// analyzeSystem instantiates the graph engine once, system-wide, over
// every internal group, if there is more than one.
func analyzeSystem(a *model.Analysis, w io.Writer, dotDir string) error {
	var groups []model.GroupID
	for gi := range a.Groups {
		if a.Group(model.GroupID(gi)).Role == model.Internal {
			groups = append(groups, model.GroupID(gi))
		}
	}
	if len(groups) < 2 {
		return nil
	}
	members := collections.ToSet(groups)
	gr := graph.New(groups, groupPeers(a, members))
	rep := gr.Analyze(func(id model.GroupID) string { return a.Group(id).Name })

	printScope(w, "system", rep)
	return writeDot(dotDir, "system", rep)
}

// componentPeers enumerates id's internal dependencies that also belong
// to members -- the population the component graph was built over
// (always one package's components).
func componentPeers(a *model.Analysis, members collections.Set[model.ComponentID]) graph.PeerFunc[model.ComponentID] {
	return func(id model.ComponentID) []model.ComponentID {
		var peers []model.ComponentID
		for dep := range a.Component(id).DepsInternal {
			if members.Contains(dep) {
				peers = append(peers, dep)
			}
		}
		return peers
	}
}

// packagePeers enumerates the distinct packages (within members) that
// id's components depend on.
func packagePeers(a *model.Analysis, members collections.Set[model.PackageID]) graph.PeerFunc[model.PackageID] {
	return func(id model.PackageID) []model.PackageID {
		seen := collections.Set[model.PackageID]{}
		var peers []model.PackageID
		for _, compID := range a.Package(id).Components {
			for dep := range a.Component(compID).DepsInternal {
				target := a.Component(dep).Package
				if target == id || !members.Contains(target) || seen.Contains(target) {
					continue
				}
				seen.Add(target)
				peers = append(peers, target)
			}
		}
		return peers
	}
}

// groupPeers enumerates the distinct internal groups (within members)
// that id's packages' components depend on.
func groupPeers(a *model.Analysis, members collections.Set[model.GroupID]) graph.PeerFunc[model.GroupID] {
	return func(id model.GroupID) []model.GroupID {
		seen := collections.Set[model.GroupID]{}
		var peers []model.GroupID
		for _, pkgID := range a.Group(id).PackageIDs {
			for _, compID := range a.Package(pkgID).Components {
				for dep := range a.Component(compID).DepsInternal {
					target := a.Package(a.Component(dep).Package).Group
					if target == id || !members.Contains(target) || seen.Contains(target) {
						continue
					}
					seen.Add(target)
					peers = append(peers, target)
				}
			}
		}
		return peers
	}
}

// printScope writes one "#"-banner report section for an analyzed scope.
func printScope[T comparable](w io.Writer, scope string, rep *graph.Report[T]) {
	fmt.Fprintln(w, strings.Repeat("#", 80))
	fmt.Fprintln(w, scope)
	rep.PrintCycles(w)
	rep.PrintLevels(w)
	rep.PrintSummary(w)
}

// writeDot writes rep's DOT representation to <dotDir>/<scope>.dot.
func writeDot[T comparable](dotDir, scope string, rep *graph.Report[T]) error {
	path := filepath.Join(dotDir, scope+".dot")
	f, err := os.Create(path)
	if err != nil {
		return pperr.IO("writing %s: %w", path, err)
	}
	defer f.Close()
	rep.WriteDot(f, scope)
	return nil
}
