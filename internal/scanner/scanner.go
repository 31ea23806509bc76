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

// Package scanner extracts #include directives from C/C++ source text.
// It performs no preprocessing: #if blocks, macro expansion, and computed
// includes are not evaluated. Every textually present #include is emitted,
// in source order, whether or not it would actually be compiled.
package scanner

import (
	"bufio"
	"io"
	"os"
	"regexp"

	"github.com/go-cppdep/cppdep/internal/model"
	"github.com/go-cppdep/cppdep/internal/pperr"
)

// includeLine matches a line beginning (after optional leading whitespace)
// with #include, capturing either the angled or the quoted header text.
// Only the first match on a line is considered; a directive appearing
// inside a string literal or a trailing comment is not excluded.
var includeLine = regexp.MustCompile(`^\s*#\s*include\s*(?:<([^>]+)>|"([^"]+)")`)

// headerExts and implExts classify files for discovery purposes, not for
// include-directive parsing.
var (
	headerExts = map[string]bool{".h": true, ".hh": true, ".hpp": true, ".hxx": true, ".h++": true}
	implExts   = map[string]bool{".c": true, ".cc": true, ".cpp": true, ".cxx": true, ".c++": true}
)

// IsHeader reports whether name (as returned by filepath.Ext, matched
// case-insensitively) is a recognized header extension.
func IsHeader(ext string) bool { return headerExts[lowerASCII(ext)] }

// IsImpl reports whether ext is a recognized implementation extension.
func IsImpl(ext string) bool { return implExts[lowerASCII(ext)] }

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// File reads path and returns the include directives it textually
// contains, in source order.
func File(path string) ([]model.Include, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pperr.IO("reading %s: %w", path, err)
	}
	defer f.Close()
	includes, err := Scan(f)
	if err != nil {
		return includes, pperr.IO("reading %s: %w", path, err)
	}
	return includes, nil
}

// Scan reads r line by line and returns the include directives found.
func Scan(r io.Reader) ([]model.Include, error) {
	var includes []model.Include
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		m := includeLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		if m[1] != "" {
			includes = append(includes, model.Include{Text: m[1], Kind: model.AngledInclude, Line: line})
		} else {
			includes = append(includes, model.Include{Text: m[2], Kind: model.QuotedInclude, Line: line})
		}
	}
	return includes, sc.Err()
}
