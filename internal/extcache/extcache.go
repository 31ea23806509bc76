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

// Package extcache persists the header-basename -> resolved-path mapping
// the resolver discovers while walking external package directories, so a
// later run with an unchanged configuration can skip re-walking large
// external trees (Boost, vendored SDKs) for headers it has already found.
// The cache is advisory: a stale or missing entry just falls back to a
// fresh walk, and a corrupt cache file is treated as an empty one rather
// than a fatal error.
package extcache

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Cache maps a header basename to the absolute path it last resolved to.
type Cache struct {
	path    string
	entries map[string]string
	dirty   bool
}

// document is the on-disk YAML shape.
type document struct {
	Headers map[string]string `yaml:"headers"`
}

// Load reads the cache file at path. A missing or unparsable file yields
// an empty, usable cache rather than an error -- the cache is a
// performance aid, never a correctness dependency.
func Load(path string) *Cache {
	c := &Cache{path: path, entries: map[string]string{}}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return c
	}
	if doc.Headers != nil {
		c.entries = doc.Headers
	}
	return c
}

// Get returns the cached path for basename, if any.
func (c *Cache) Get(basename string) (string, bool) {
	path, ok := c.entries[basename]
	if !ok {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		delete(c.entries, basename)
		c.dirty = true
		return "", false
	}
	return path, true
}

// Put records that basename resolved to path.
func (c *Cache) Put(basename, path string) {
	if c.entries[basename] == path {
		return
	}
	c.entries[basename] = path
	c.dirty = true
}

// Save writes the cache back to disk if it changed since Load. A marshal or
// write failure is returned to the caller; nothing else depends on the file
// having been written.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	data, err := yaml.Marshal(document{Headers: c.entries})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
