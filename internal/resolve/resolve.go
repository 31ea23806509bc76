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

// Package resolve turns each internal component's include directives into
// dependency edges: an internal edge, an external edge, or a warning that
// the header could not be found. It also runs the include-hygiene checks
// (own-header include present and first) that are independent of whether
// resolution succeeds.
package resolve

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/go-cppdep/cppdep/internal/extcache"
	"github.com/go-cppdep/cppdep/internal/model"
)

// Warning is a non-fatal resolver finding.
type Warning struct {
	Component string
	Message   string
}

func (w Warning) String() string { return w.Message }

// Resolver resolves include directives against an Analysis arena, caching
// the location of external headers it locates so repeated lookups for the
// same basename don't re-walk the filesystem.
type Resolver struct {
	a     *model.Analysis
	cache *extcache.Cache // may be nil: resolution still works, just re-walks every time
}

// New builds a Resolver over a. If cache is non-nil, it is consulted and
// updated as external headers are located.
func New(a *model.Analysis, cache *extcache.Cache) *Resolver {
	return &Resolver{a: a, cache: cache}
}

// All resolves every include directive of every internal component,
// returning accumulated warnings in a deterministic (component-name,
// then-line) order.
func (r *Resolver) All() ([]Warning, error) {
	var warnings []Warning
	ids := make([]model.ComponentID, 0, len(r.a.Components))
	for i := range r.a.Components {
		ids = append(ids, model.ComponentID(i))
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.a.Component(ids[i]).Name < r.a.Component(ids[j]).Name
	})

	for _, id := range ids {
		c := r.a.Component(id)
		ws, err := r.component(c)
		warnings = append(warnings, ws...)
		if err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}

func (r *Resolver) component(c *model.Component) ([]Warning, error) {
	var warnings []Warning

	if w := hygiene(c); w != nil {
		warnings = append(warnings, *w)
	}

	for i := range c.IncludesInHeader {
		w, err := r.directive(c, &c.IncludesInHeader[i])
		if err != nil {
			return warnings, err
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	for i := range c.IncludesInImpl {
		w, err := r.directive(c, &c.IncludesInImpl[i])
		if err != nil {
			return warnings, err
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings, nil
}

// directive resolves one include directive against c, per the fixed
// resolution order: self-include, internal header index, cached external
// header, external package walk, unresolved.
func (r *Resolver) directive(c *model.Component, inc *model.Include) (*Warning, error) {
	base := basename(inc.Text)

	if c.HeaderBasename != "" && base == c.HeaderBasename {
		inc.ResolvedPath = c.HeaderPath
		return nil, nil
	}

	if targetID, ok := r.a.InternalHeaderIndex[base]; ok {
		target := r.a.Component(targetID)
		if target.ID != c.ID {
			inc.ResolvedPath = target.HeaderPath
			c.DepsInternal.Add(target.ID)
			return nil, nil
		}
	}

	if extID, ok := r.a.ExternalHeaderIndex[base]; ok {
		ext := r.a.External(extID)
		inc.ResolvedPath = ext.Path
		c.DepsExternal.Add(extID)
		return nil, nil
	}

	path, pkgID, err := r.locateExternal(base)
	if err != nil {
		return nil, err
	}
	if path != "" {
		extID := r.a.AddExternalComponent(pkgID, base, path)
		if r.cache != nil {
			r.cache.Put(base, path)
		}
		inc.ResolvedPath = path
		c.DepsExternal.Add(extID)
		return nil, nil
	}

	return &Warning{
		Component: c.Name,
		Message:   fmt.Sprintf("header not found: %q included from %s", inc.Text, c.Name),
	}, nil
}

// locateExternal searches every external package's directories, in group
// then package order, for a file named base. The cache is consulted first
// when it holds a still-existing path for base.
func (r *Resolver) locateExternal(base string) (string, model.PackageID, error) {
	if r.cache != nil {
		if path, ok := r.cache.Get(base); ok {
			if pkgID, found := r.packageOwning(path); found {
				return path, pkgID, nil
			}
		}
	}

	for gi := range r.a.Groups {
		g := r.a.Group(model.GroupID(gi))
		if g.Role != model.External {
			continue
		}
		for _, pkgID := range g.PackageIDs {
			pkg := r.a.Package(pkgID)
			for _, root := range pkg.Paths {
				var hit string
				err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
					if err != nil {
						return err
					}
					if hit != "" {
						return fs.SkipAll
					}
					if path != root {
						if rel, relErr := filepath.Rel(root, path); relErr == nil {
							for _, pat := range pkg.Exclude {
								if ok, _ := doublestar.Match(pat, filepath.ToSlash(rel)); ok {
									if d.IsDir() {
										return fs.SkipDir
									}
									return nil
								}
							}
						}
					}
					if !d.IsDir() && d.Name() == base {
						hit = path
						return fs.SkipAll
					}
					return nil
				})
				if err != nil {
					return "", 0, err
				}
				if hit != "" {
					return hit, pkgID, nil
				}
			}
		}
	}
	return "", 0, nil
}

// packageOwning finds the external package whose directory tree contains
// path, used to validate a cache hit still maps to a package in the
// current configuration.
func (r *Resolver) packageOwning(path string) (model.PackageID, bool) {
	for gi := range r.a.Groups {
		g := r.a.Group(model.GroupID(gi))
		if g.Role != model.External {
			continue
		}
		for _, pkgID := range g.PackageIDs {
			pkg := r.a.Package(pkgID)
			for _, root := range pkg.Paths {
				if rel, err := filepath.Rel(root, path); err == nil && !isOutsideRel(rel) {
					return pkgID, true
				}
			}
		}
	}
	return 0, false
}

func isOutsideRel(rel string) bool {
	return rel == ".." || len(rel) >= 3 && rel[:3] == "../"
}

// hygiene checks that a component with both files includes its own header
// first in the implementation file.
func hygiene(c *model.Component) *Warning {
	if !c.HasHeader() || !c.HasImpl() {
		return nil
	}
	ownIndex := -1
	for i, inc := range c.IncludesInImpl {
		if basename(inc.Text) == c.HeaderBasename {
			ownIndex = i
			break
		}
	}
	if ownIndex == -1 {
		return &Warning{
			Component: c.Name,
			Message:   fmt.Sprintf("missing include: %s's implementation file does not include its own header %s", c.Name, c.HeaderBasename),
		}
	}
	if ownIndex != 0 {
		return &Warning{
			Component: c.Name,
			Message:   fmt.Sprintf("include order: %s's implementation file must include %s first", c.Name, c.HeaderBasename),
		}
	}
	return nil
}

func basename(headerText string) string {
	for i := len(headerText) - 1; i >= 0; i-- {
		if headerText[i] == '/' {
			return headerText[i+1:]
		}
	}
	return headerText
}
