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

package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-cppdep/cppdep/internal/model"
	"github.com/go-cppdep/cppdep/internal/pairing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// buildAndPair sets up a single internal package "p" under root/p with the
// given files, pairs it, and returns the populated Analysis.
func buildAndPair(t *testing.T, root string, files map[string]string) *model.Analysis {
	t.Helper()
	for name, contents := range files {
		writeFile(t, filepath.Join(root, "p", name), contents)
	}
	a := model.New()
	grp := a.AddGroup("g", root, model.Internal)
	a.AddPackage(grp, "p", []string{filepath.Join(root, "p")}, filepath.Join(root, "p"), nil)
	_, err := pairing.All(a)
	require.NoError(t, err)
	return a
}

func componentNamed(a *model.Analysis, name string) *model.Component {
	for i := range a.Components {
		if a.Components[i].Name == name {
			return a.Component(model.ComponentID(i))
		}
	}
	return nil
}

// Scenario 1: two-component acyclic, b depends on a.
func TestAll_TwoComponentAcyclic(t *testing.T) {
	root := t.TempDir()
	a := buildAndPair(t, root, map[string]string{
		"a.h": "",
		"a.c": `#include "a.h"` + "\n",
		"b.h": "",
		"b.c": "#include \"b.h\"\n#include \"a.h\"\n",
	})

	r := New(a, nil)
	warnings, err := r.All()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	b := componentNamed(a, "b")
	aComp := componentNamed(a, "a")
	require.NotNil(t, b)
	require.NotNil(t, aComp)
	assert.Contains(t, b.DepsInternal, aComp.ID)
	assert.NotContains(t, aComp.DepsInternal, b.ID)
	assert.Empty(t, aComp.DepsInternal)
}

// Scenario 2: mutual cycle, a.h includes b.h and vice versa.
func TestAll_MutualCycleHeadersOnly(t *testing.T) {
	root := t.TempDir()
	a := buildAndPair(t, root, map[string]string{
		"a.h": `#include "b.h"` + "\n",
		"b.h": `#include "a.h"` + "\n",
	})

	r := New(a, nil)
	warnings, err := r.All()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	aComp := componentNamed(a, "a")
	bComp := componentNamed(a, "b")
	assert.Contains(t, aComp.DepsInternal, bComp.ID)
	assert.Contains(t, bComp.DepsInternal, aComp.ID)
}

// Scenario 3: external resolution via a recursive walk of an external
// package's directories, with dep_external_packages reporting "G.boost".
func TestAll_ExternalResolution(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "p", "main.c"), "#include <boost/any.hpp>\n")
	writeFile(t, filepath.Join(root, "ext", "boost", "deep", "any.hpp"), "")

	a := model.New()
	internalGrp := a.AddGroup("g", root, model.Internal)
	a.AddPackage(internalGrp, "p", []string{filepath.Join(root, "p")}, filepath.Join(root, "p"), nil)
	externalGrp := a.AddGroup("G", filepath.Join(root, "ext"), model.External)
	a.AddPackage(externalGrp, "boost", []string{filepath.Join(root, "ext", "boost")}, filepath.Join(root, "ext", "boost"), nil)

	_, err := pairing.All(a)
	require.NoError(t, err)

	r := New(a, nil)
	warnings, err := r.All()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	main := componentNamed(a, "main")
	require.NotNil(t, main)
	require.Len(t, main.DepsExternal, 1)
	assert.Equal(t, []string{"G.boost"}, a.DepExternalPackages(main))
}

// Scenario 4: widget.c includes other.h before widget.h -> include order warning.
func TestAll_IncludeOrderWarning(t *testing.T) {
	root := t.TempDir()
	a := buildAndPair(t, root, map[string]string{
		"widget.h": "",
		"other.h":  "",
		"widget.c": "#include \"other.h\"\n#include \"widget.h\"\n",
	})

	r := New(a, nil)
	warnings, err := r.All()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "include order")
	assert.Contains(t, warnings[0].Message, "widget")
}

// Scenario 5: foo.c includes nowhere.h, unresolved -> warning, no edge.
func TestAll_UnresolvedIncludeWarning(t *testing.T) {
	root := t.TempDir()
	a := buildAndPair(t, root, map[string]string{
		"foo.h": "",
		"foo.c": "#include \"foo.h\"\n#include \"nowhere.h\"\n",
	})

	r := New(a, nil)
	warnings, err := r.All()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "header not found")
	assert.Contains(t, warnings[0].Message, "nowhere.h")

	foo := componentNamed(a, "foo")
	assert.Empty(t, foo.DepsInternal)
	assert.Empty(t, foo.DepsExternal)
}

func TestAll_MissingOwnHeaderIncludeWarning(t *testing.T) {
	root := t.TempDir()
	a := buildAndPair(t, root, map[string]string{
		"widget.h": "",
		"widget.c": "int x;\n",
	})

	r := New(a, nil)
	warnings, err := r.All()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "missing include")
}

func TestAll_SelfIncludeProducesNoEdge(t *testing.T) {
	root := t.TempDir()
	a := buildAndPair(t, root, map[string]string{
		"widget.h": "",
		"widget.c": "#include \"widget.h\"\n",
	})

	r := New(a, nil)
	warnings, err := r.All()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	widget := componentNamed(a, "widget")
	assert.NotContains(t, widget.DepsInternal, widget.ID)
	assert.Empty(t, widget.DepsInternal)
}

func TestAll_HeaderOnlyComponentNoOrderWarning(t *testing.T) {
	root := t.TempDir()
	a := buildAndPair(t, root, map[string]string{
		"tmpl.h": "",
	})

	r := New(a, nil)
	warnings, err := r.All()
	require.NoError(t, err)
	assert.Empty(t, warnings)
}
