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

// Package pairing walks each internal package's directories and groups
// header and implementation files sharing an extensionless basename into
// components, registering them into a model.Analysis arena.
package pairing

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/go-cppdep/cppdep/internal/model"
	"github.com/go-cppdep/cppdep/internal/pperr"
	"github.com/go-cppdep/cppdep/internal/scanner"
)

// Warning is a non-fatal finding raised while pairing files into components.
type Warning struct {
	Component string
	Message   string
}

func (w Warning) String() string { return w.Message }

// All walks every internal package group's packages and pairs their files
// into components, in package-group then package order.
func All(a *model.Analysis) ([]Warning, error) {
	var warnings []Warning
	for gi := range a.Groups {
		g := a.Group(model.GroupID(gi))
		if g.Role != model.Internal {
			continue
		}
		for _, pkgID := range g.PackageIDs {
			ws, err := pkg(a, g, a.Package(pkgID))
			warnings = append(warnings, ws...)
			if err != nil {
				return warnings, err
			}
		}
	}
	return warnings, nil
}

// pkg walks p's directories, pairs files into components, and registers
// them. Implementation-basename collisions within the package are fatal;
// header-basename collisions silently keep the first-encountered file.
func pkg(a *model.Analysis, g *model.PackageGroup, p *model.Package) ([]Warning, error) {
	type found struct {
		headerPath string
		implPath   string
	}
	byBase := map[string]*found{}
	var order []string // first-seen order of basenames, for deterministic component names before sorting

	for _, root := range p.Paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return pperr.IO("walking %s: %w", path, err)
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if d.IsDir() {
				if path != root && excluded(p.Exclude, rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if excluded(p.Exclude, rel) {
				return nil
			}
			name := d.Name()
			ext := filepath.Ext(name)
			base := strings.TrimSuffix(name, ext)
			switch {
			case scanner.IsHeader(ext):
				f, ok := byBase[base]
				if !ok {
					f = &found{}
					byBase[base] = f
					order = append(order, base)
				}
				if f.headerPath == "" {
					f.headerPath = path
				}
			case scanner.IsImpl(ext):
				f, ok := byBase[base]
				if !ok {
					f = &found{}
					byBase[base] = f
					order = append(order, base)
				}
				if f.implPath != "" {
					return pperr.Config("duplicate implementation file basename %q in package %s: %s and %s", base, p.Name, f.implPath, path)
				}
				f.implPath = path
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(order)
	var warnings []Warning
	for _, base := range order {
		f := byBase[base]
		name := componentName(p.Root, f.headerPath, f.implPath)

		var includesHeader, includesImpl []model.Include
		if f.headerPath != "" {
			includes, err := scanner.File(f.headerPath)
			if err != nil {
				return warnings, err
			}
			includesHeader = includes
		}
		if f.implPath != "" {
			includes, err := scanner.File(f.implPath)
			if err != nil {
				return warnings, err
			}
			includesImpl = includes
		}

		a.AddComponent(p.ID, name, f.headerPath, f.implPath, includesHeader, includesImpl)
		if f.headerPath == "" && f.implPath != "" {
			warnings = append(warnings, Warning{
				Component: name,
				Message:   fmt.Sprintf("incomplete component: %s has an implementation file but no header", name),
			})
		}
	}
	return warnings, nil
}

// componentName derives a component's name: the path of its header (or, if
// it has no header, its impl) relative to the package root, without
// extension.
func componentName(root, headerPath, implPath string) string {
	path := headerPath
	if path == "" {
		path = implPath
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext)
}

// excluded reports whether rel (a path relative to the directory the
// exclude patterns were declared against) matches any of patterns.
func excluded(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
