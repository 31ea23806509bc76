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

package analysis

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// Scenario 6: group G has package A (component x, #include <b.h>), package
// B (component b, #include "c.h"), package C (component c). At package
// scope: edges A->B, B->C; levels {C:1, B:2, A:3}; CCD = 1+2+3 = 6.
func TestRun_ThreeLevelPackageChain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A", "x.h"), "#include <b.h>\n")
	writeFile(t, filepath.Join(root, "B", "b.h"), "")
	writeFile(t, filepath.Join(root, "B", "b.c"), "#include \"b.h\"\n#include \"c.h\"\n")
	writeFile(t, filepath.Join(root, "C", "c.h"), "")

	cfg := filepath.Join(root, "cppdep.xml")
	writeFile(t, cfg, `
<cppdep>
  <package-group name="G" path="`+root+`">
    <package name="A"><path>A</path></package>
    <package name="B"><path>B</path></package>
    <package name="C"><path>C</path></package>
  </package-group>
</cppdep>`)

	dotDir := t.TempDir()
	var out bytes.Buffer
	result, err := Run(Options{ConfigPath: cfg, DotDir: dotDir}, &out)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	report := out.String()
	assert.Contains(t, report, "CCD: 6")

	_, err = os.Stat(filepath.Join(dotDir, "G.dot"))
	assert.NoError(t, err)
}

func TestRun_MutualCycleReportsOneSCC(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "p", "a.h"), `#include "b.h"`+"\n")
	writeFile(t, filepath.Join(root, "p", "b.h"), `#include "a.h"`+"\n")

	cfg := filepath.Join(root, "cppdep.xml")
	writeFile(t, cfg, `
<cppdep>
  <package-group name="g" path="`+root+`">
    <package name="p"><path>p</path></package>
  </package-group>
</cppdep>`)

	dotDir := t.TempDir()
	var out bytes.Buffer
	result, err := Run(Options{ConfigPath: cfg, DotDir: dotDir}, &out)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Contains(t, out.String(), "cycle: a, b")
	assert.Contains(t, out.String(), "CCD: 4")
}

func TestRun_UnresolvedIncludeIsReportedAsWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "p", "foo.h"), "")
	writeFile(t, filepath.Join(root, "p", "foo.c"), "#include \"foo.h\"\n#include \"nowhere.h\"\n")

	cfg := filepath.Join(root, "cppdep.xml")
	writeFile(t, cfg, `
<cppdep>
  <package-group name="g" path="`+root+`">
    <package name="p"><path>p</path></package>
  </package-group>
</cppdep>`)

	var out bytes.Buffer
	result, err := Run(Options{ConfigPath: cfg, DotDir: t.TempDir()}, &out)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "header not found")
}
