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

// Package manifest loads the TOML file that tells the plugin host which
// plugin subprocesses to spawn.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/helix-editor/plugin-host/internal/fspath"
)

// errDuplicateName is wrapped with the offending name by [Manifest.Validate].
var errDuplicateName = errors.New("duplicate plugin name in manifest")

// An Entry describes a single plugin subprocess to spawn.
type Entry struct {
	// Name identifies the plugin in logs and must be unique within a
	// manifest.
	Name string `toml:"name"`

	// Command is the executable to run. An absolute path is used as-is; a
	// path containing a separator or starting with "." is resolved relative
	// to the manifest's directory; anything else is looked up on PATH.
	Command string `toml:"command"`

	// Args are the command-line arguments passed to Command.
	Args []string `toml:"args,omitempty"`

	// Env adds environment variables to the spawned process, on top of the
	// host's own environment and the HELIX_PLUGIN_NAME/HELIX_WORKSPACE_ROOT
	// variables the host always sets.
	Env map[string]string `toml:"env,omitempty"`

	// Cwd overrides the working directory of the spawned process. It is
	// resolved the same way Command is when relative.
	Cwd string `toml:"cwd,omitempty"`
}

// A Manifest is the decoded contents of a plugin manifest file.
type Manifest struct {
	Plugins []Entry `toml:"plugins"`
}

// Load reads and parses the manifest file at path. A missing file is not an
// error: it yields an empty Manifest, matching a workspace that has not
// opted into any plugins yet. Unknown fields, either at the top level or
// within an entry, are rejected.
func Load(path fspath.Path) (*Manifest, error) {
	data, err := path.ReadFile()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("no plugin manifest found, starting with zero plugins", "path", path)

			return &Manifest{Plugins: nil}, nil
		}

		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate reports a non-nil error if two entries share the same Name.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Plugins))

	for _, e := range m.Plugins {
		if _, ok := seen[e.Name]; ok {
			return fmt.Errorf("%w: %q", errDuplicateName, e.Name)
		}

		seen[e.Name] = struct{}{}
	}

	return nil
}
