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

// Package model defines the Lakos physical-dependency data model: include
// directives, components, packages, and package groups, plus the Analysis
// arena that owns them.
//
// Entities refer to their owner by stable integer handle rather than by
// pointer, so the ownership graph stays a tree (groups own packages, which
// own components) while cross-references (component -> package -> group)
// are just index lookups through the owning *Analysis. This avoids the
// reference cycles that pointer-based back-references would create.
package model

import (
	"fmt"
	"sort"

	"github.com/go-cppdep/cppdep/internal/collections"
)

// ComponentID identifies a Component within an Analysis.
type ComponentID int

// ExternalComponentID identifies an ExternalComponent within an Analysis.
type ExternalComponentID int

// PackageID identifies a Package within an Analysis.
type PackageID int

// GroupID identifies a PackageGroup within an Analysis.
type GroupID int

// IncludeKind distinguishes quoted (`"x.h"`) from angled (`<x.h>`) includes.
type IncludeKind int

const (
	QuotedInclude IncludeKind = iota
	AngledInclude
)

// Include represents a single `#include` directive as it appeared in
// source, in source order. ResolvedPath is empty until the resolver runs;
// once set it is never mutated again.
type Include struct {
	Text         string // header text between the delimiters, e.g. "foo/bar.h"
	Kind         IncludeKind
	Line         int // 1-based line number in the source file
	ResolvedPath string
}

func (inc Include) Quoted() bool { return inc.Kind == QuotedInclude }

func (inc Include) String() string {
	if inc.Quoted() {
		return fmt.Sprintf("%q", inc.Text)
	}
	return fmt.Sprintf("<%s>", inc.Text)
}

// Component is a header/impl pair (or either alone) sharing an
// extensionless basename within one package.
type Component struct {
	ID             ComponentID
	Name           string // path relative to the package root, without extension
	Package        PackageID
	HeaderPath     string // absolute; "" if the component has no header
	ImplPath       string // absolute; "" if the component has no implementation file
	HeaderBasename string // basename of HeaderPath; "" if no header

	IncludesInHeader []Include
	IncludesInImpl   []Include

	DepsInternal collections.Set[ComponentID]
	DepsExternal collections.Set[ExternalComponentID]
}

// HasHeader reports whether the component has a header file.
func (c *Component) HasHeader() bool { return c.HeaderPath != "" }

// HasImpl reports whether the component has an implementation file.
func (c *Component) HasImpl() bool { return c.ImplPath != "" }

// Incomplete reports whether the component is an implementation file
// without a matching header.
func (c *Component) Incomplete() bool { return !c.HasHeader() && c.HasImpl() }

func (c *Component) String() string { return c.Name }

// ExternalComponent is a degenerate component: only a header path and its
// owning external package. Created lazily during resolution.
type ExternalComponent struct {
	ID       ExternalComponentID
	Basename string // the header basename used to key this component
	Path     string // absolute path to the located header
	Package  PackageID
}

// Package is a named collection of components backed by one or more
// directories.
type Package struct {
	ID      PackageID
	Name    string
	Paths   []string // absolute directories
	Root    string   // longest common prefix of Paths
	Group   GroupID
	Exclude []string // doublestar glob patterns, relative to the path they annotate

	Components []ComponentID
}

// GroupRole tags a package group as analyzed (internal) or a source of
// include targets only (external).
type GroupRole int

const (
	Internal GroupRole = iota
	External
)

func (r GroupRole) String() string {
	if r == External {
		return "external"
	}
	return "internal"
}

// PackageGroup is a named collection of packages sharing a root directory.
type PackageGroup struct {
	ID   GroupID
	Name string
	Path string
	Role GroupRole

	PackageIDs    []PackageID // insertion order
	PackageByName map[string]PackageID
}

func (p *Package) String() string { return p.Name }

func (g *PackageGroup) String() string { return g.Name }

// Analysis is the arena that owns every group, package, component, and
// external component produced while reading a configuration. It is built
// in three strictly ordered phases -- configure, pair, resolve -- and is
// treated as immutable by the graph engine thereafter.
type Analysis struct {
	Groups             []PackageGroup
	Packages           []Package
	Components         []Component
	ExternalComponents []ExternalComponent

	GroupByName map[string]GroupID

	// InternalHeaderIndex maps a header basename to the first internal
	// component that claims it, project-wide. Built during pairing; used
	// as the resolver's primary lookup and, per spec, relied upon to be
	// unique -- a violation of that invariant simply means the colliding
	// header loses to whichever component registered first.
	InternalHeaderIndex map[string]ComponentID

	// ExternalHeaderIndex caches headers already located under an
	// external package, keyed by header basename.
	ExternalHeaderIndex map[string]ExternalComponentID
}

// New creates an empty Analysis ready for package-group registration.
func New() *Analysis {
	return &Analysis{
		GroupByName:         map[string]GroupID{},
		InternalHeaderIndex: map[string]ComponentID{},
		ExternalHeaderIndex: map[string]ExternalComponentID{},
	}
}

// AddGroup registers a new package group and returns its ID.
func (a *Analysis) AddGroup(name, path string, role GroupRole) GroupID {
	id := GroupID(len(a.Groups))
	a.Groups = append(a.Groups, PackageGroup{
		ID:            id,
		Name:          name,
		Path:          path,
		Role:          role,
		PackageByName: map[string]PackageID{},
	})
	a.GroupByName[name] = id
	return id
}

// AddPackage registers a new package under group and returns its ID.
func (a *Analysis) AddPackage(group GroupID, name string, paths []string, root string, exclude []string) PackageID {
	id := PackageID(len(a.Packages))
	a.Packages = append(a.Packages, Package{
		ID:      id,
		Name:    name,
		Paths:   paths,
		Root:    root,
		Group:   group,
		Exclude: exclude,
	})
	g := &a.Groups[group]
	g.PackageIDs = append(g.PackageIDs, id)
	g.PackageByName[name] = id
	return id
}

// AddComponent registers a new component under pkg and returns its ID.
// includesHeader and includesImpl are the include directives the scanner
// already found in headerPath and implPath respectively, in source order.
func (a *Analysis) AddComponent(pkg PackageID, name, headerPath, implPath string, includesHeader, includesImpl []Include) ComponentID {
	id := ComponentID(len(a.Components))
	headerBasename := ""
	if headerPath != "" {
		headerBasename = baseName(headerPath)
	}
	a.Components = append(a.Components, Component{
		ID:               id,
		Name:             name,
		Package:          pkg,
		HeaderPath:       headerPath,
		ImplPath:         implPath,
		HeaderBasename:   headerBasename,
		IncludesInHeader: includesHeader,
		IncludesInImpl:   includesImpl,
		DepsInternal:     collections.Set[ComponentID]{},
		DepsExternal:     collections.Set[ExternalComponentID]{},
	})
	a.Packages[pkg].Components = append(a.Packages[pkg].Components, id)
	if headerBasename != "" {
		if _, exists := a.InternalHeaderIndex[headerBasename]; !exists {
			a.InternalHeaderIndex[headerBasename] = id
		}
	}
	return id
}

// AddExternalComponent registers a lazily-created external component.
func (a *Analysis) AddExternalComponent(pkg PackageID, basename, path string) ExternalComponentID {
	id := ExternalComponentID(len(a.ExternalComponents))
	a.ExternalComponents = append(a.ExternalComponents, ExternalComponent{
		ID:       id,
		Basename: basename,
		Path:     path,
		Package:  pkg,
	})
	a.ExternalHeaderIndex[basename] = id
	return id
}

func (a *Analysis) Group(id GroupID) *PackageGroup      { return &a.Groups[id] }
func (a *Analysis) Package(id PackageID) *Package       { return &a.Packages[id] }
func (a *Analysis) Component(id ComponentID) *Component { return &a.Components[id] }
func (a *Analysis) External(id ExternalComponentID) *ExternalComponent {
	return &a.ExternalComponents[id]
}

// DepExternalPackages yields the sorted, deduplicated "group.package"
// identifiers of c's external dependencies.
func (a *Analysis) DepExternalPackages(c *Component) []string {
	seen := map[string]struct{}{}
	var result []string
	for extID := range c.DepsExternal {
		ext := a.External(extID)
		pkg := a.Package(ext.Package)
		grp := a.Group(pkg.Group)
		key := grp.Name + "." + pkg.Name
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			result = append(result, key)
		}
	}
	sort.Strings(result)
	return result
}

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
