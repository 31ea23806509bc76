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

// Package xmlconfig loads the package-group/package/path configuration
// file into a model.Analysis populated with groups and packages, ready
// for the pairing phase. It never touches the filesystem beyond
// validating that declared directories exist.
package xmlconfig

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-cppdep/cppdep/internal/collections"
	"github.com/go-cppdep/cppdep/internal/model"
	"github.com/go-cppdep/cppdep/internal/pperr"
)

type configXML struct {
	XMLName xml.Name   `xml:"cppdep"`
	Groups  []groupXML `xml:"package-group"`
}

type groupXML struct {
	Name     string       `xml:"name,attr"`
	Path     string       `xml:"path,attr"`
	Role     string       `xml:"role,attr"`
	Packages []packageXML `xml:"package"`
	Paths    []pathXML    `xml:"path"`
}

type packageXML struct {
	Name    string    `xml:"name,attr"`
	Exclude string    `xml:"exclude,attr"`
	Paths   []pathXML `xml:"path"`
}

type pathXML struct {
	Exclude string `xml:"exclude,attr"`
	Dir     string `xml:",chardata"`
}

// Load reads and validates the configuration file at path, returning a
// model.Analysis whose groups and packages are populated (but not yet
// paired into components).
func Load(path string) (*model.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pperr.IO("reading configuration %s: %w", path, err)
	}

	var doc configXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, pperr.XML("parsing %s: %w", path, err)
	}

	a := model.New()
	for _, gx := range doc.Groups {
		if err := loadGroup(a, gx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func loadGroup(a *model.Analysis, gx groupXML) error {
	if gx.Name == "" {
		return pperr.Config("package-group is missing required attribute \"name\"")
	}
	if gx.Path == "" {
		return pperr.Config("package-group %q is missing required attribute \"path\"", gx.Name)
	}
	if _, dup := a.GroupByName[gx.Name]; dup {
		return pperr.Config("duplicate package-group name %q", gx.Name)
	}

	role, err := parseRole(gx.Role)
	if err != nil {
		return pperr.Config("package-group %q: %w", gx.Name, err)
	}

	groupPath, err := filepath.Abs(gx.Path)
	if err != nil {
		return pperr.Config("package-group %q: %w", gx.Name, err)
	}
	if info, err := os.Stat(groupPath); err != nil || !info.IsDir() {
		return pperr.Config("package-group %q: path %q is not a directory", gx.Name, groupPath)
	}

	group := a.AddGroup(gx.Name, groupPath, role)

	for _, px := range gx.Packages {
		if err := loadPackage(a, group, groupPath, px); err != nil {
			return err
		}
	}
	for _, dirx := range gx.Paths {
		if err := loadAnonymousPackage(a, group, groupPath, dirx); err != nil {
			return err
		}
	}
	return nil
}

func loadPackage(a *model.Analysis, group model.GroupID, groupPath string, px packageXML) error {
	g := a.Group(group)
	if px.Name == "" {
		return pperr.Config("package-group %q: a <package> element is missing required attribute \"name\"", g.Name)
	}
	if _, dup := g.PackageByName[px.Name]; dup {
		return pperr.Config("package-group %q: duplicate package name %q", g.Name, px.Name)
	}
	if len(px.Paths) == 0 {
		return pperr.Config("package-group %q: package %q has no <path> elements", g.Name, px.Name)
	}

	var dirs []string
	var excludes []string
	excludes = append(excludes, splitExclude(px.Exclude)...)
	seen := map[string]struct{}{}
	for _, dirx := range px.Paths {
		abs, err := resolveDir(groupPath, dirx.Dir)
		if err != nil {
			return pperr.Config("package-group %q, package %q: %w", g.Name, px.Name, err)
		}
		if _, dup := seen[abs]; dup {
			return pperr.Config("package-group %q, package %q: duplicate directory %q", g.Name, px.Name, abs)
		}
		seen[abs] = struct{}{}
		dirs = append(dirs, abs)
		excludes = append(excludes, splitExclude(dirx.Exclude)...)
	}

	a.AddPackage(group, px.Name, dirs, commonPrefix(dirs), excludes)
	return nil
}

func loadAnonymousPackage(a *model.Analysis, group model.GroupID, groupPath string, dirx pathXML) error {
	g := a.Group(group)
	abs, err := resolveDir(groupPath, dirx.Dir)
	if err != nil {
		return pperr.Config("package-group %q: %w", g.Name, err)
	}
	name := synthesizeName(dirx.Dir)
	if _, dup := g.PackageByName[name]; dup {
		return pperr.Config("package-group %q: duplicate package name %q (derived from path %q)", g.Name, name, dirx.Dir)
	}
	a.AddPackage(group, name, []string{abs}, abs, splitExclude(dirx.Exclude))
	return nil
}

func parseRole(role string) (model.GroupRole, error) {
	switch role {
	case "", "internal":
		return model.Internal, nil
	case "external":
		return model.External, nil
	default:
		return 0, fmt.Errorf("invalid role %q: must be \"internal\" or \"external\"", role)
	}
}

// resolveDir resolves dir (relative to groupPath unless already absolute)
// and validates it names a directory.
func resolveDir(groupPath, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("empty <path>")
	}
	abs := dir
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(groupPath, dir)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", abs)
	}
	return abs, nil
}

// commonPrefix returns the longest common directory prefix of dirs, or
// dirs[0] if there is only one.
func commonPrefix(dirs []string) string {
	if len(dirs) == 0 {
		return ""
	}
	prefix := filepath.Clean(dirs[0])
	for _, d := range dirs[1:] {
		prefix = commonPrefixOf(prefix, filepath.Clean(d))
	}
	return prefix
}

func commonPrefixOf(a, b string) string {
	as := strings.Split(a, string(filepath.Separator))
	bs := strings.Split(b, string(filepath.Separator))
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	var common []string
	for i := 0; i < n; i++ {
		if as[i] != bs[i] {
			break
		}
		common = append(common, as[i])
	}
	if len(common) == 0 || (len(common) == 1 && common[0] == "") {
		return string(filepath.Separator)
	}
	return strings.Join(common, string(filepath.Separator))
}

// synthesizeName derives an anonymous package's name from dir's non-empty
// path segments, joined by "_".
func synthesizeName(dir string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(dir)), "/")
	segments := collections.FilterSlice(parts, func(p string) bool { return p != "" && p != "." })
	if len(segments) == 0 {
		return "root"
	}
	return strings.Join(segments, "_")
}

// splitExclude splits a comma-separated exclude attribute into individual
// glob patterns, discarding empty entries.
func splitExclude(attr string) []string {
	if attr == "" {
		return nil
	}
	return collections.FilterMapSlice(strings.Split(attr, ","), func(p string) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
}
