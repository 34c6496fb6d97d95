// Copyright 2025 The Reginald Authors
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

package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/helix-editor/plugin-host/internal/fspath"
	"github.com/helix-editor/plugin-host/internal/manifest"
)

func writeManifest(t *testing.T, contents string) fspath.Path {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "plugins.toml")

	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	return fspath.Path(path)
}

func TestLoadMissingFileYieldsEmptyManifest(t *testing.T) {
	path := fspath.Path(filepath.Join(t.TempDir(), "does-not-exist.toml"))

	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(m.Plugins) != 0 {
		t.Errorf("Plugins = %v, want empty", m.Plugins)
	}
}

func TestLoadParsesEntries(t *testing.T) {
	path := writeManifest(t, `
[[plugins]]
name = "hello"
command = "hello-plugin"
args = ["--flag"]

[plugins.env]
FOO = "bar"
`)

	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(m.Plugins) != 1 {
		t.Fatalf("Plugins = %v, want 1 entry", m.Plugins)
	}

	e := m.Plugins[0]
	if e.Name != "hello" || e.Command != "hello-plugin" {
		t.Errorf("entry = %+v", e)
	}

	if len(e.Args) != 1 || e.Args[0] != "--flag" {
		t.Errorf("Args = %v", e.Args)
	}

	if e.Env["FOO"] != "bar" {
		t.Errorf("Env = %v", e.Env)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeManifest(t, `
[[plugins]]
name = "hello"
command = "hello-plugin"
bogus = "nope"
`)

	if _, err := manifest.Load(path); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestLoadRejectsDuplicateNames(t *testing.T) {
	path := writeManifest(t, `
[[plugins]]
name = "hello"
command = "a"

[[plugins]]
name = "hello"
command = "b"
`)

	if _, err := manifest.Load(path); err == nil {
		t.Fatal("expected an error for duplicate plugin names")
	}
}
