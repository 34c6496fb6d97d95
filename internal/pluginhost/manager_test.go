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

package pluginhost_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/helix-editor/plugin-host/internal/fspath"
	"github.com/helix-editor/plugin-host/internal/pluginhost"
)

func writeTestManifest(t *testing.T) fspath.Path {
	t.Helper()

	self, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "plugins.toml")

	contents := "[[plugins]]\n" +
		"name = \"greeter\"\n" +
		"command = " + strconvQuote(self) + "\n" +
		"args = [\"-test.run=^$\"]\n\n" +
		"[plugins.env]\n" +
		helperProcessEnv + " = \"1\"\n"

	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	return fspath.Path(path)
}

// strconvQuote wraps s in double quotes for a TOML basic string. It does not
// escape anything, so s must contain no backslash or double quote.
func strconvQuote(s string) string {
	return `"` + s + `"`
}

func TestManagerEnsureInitializedRegistersCommands(t *testing.T) {
	manifestPath := writeTestManifest(t)
	manager := pluginhost.NewManager(manifestPath, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := manager.EnsureInitialized(ctx, "/workspace"); err != nil {
		t.Fatalf("EnsureInitialized() error = %v", err)
	}

	names := manager.CommandNames()
	if len(names) != 1 || names[0] != "greeter.hello" {
		t.Fatalf("CommandNames() = %v, want [greeter.hello]", names)
	}

	result, err := manager.ExecuteCommand(ctx, "greeter.hello", []json.RawMessage{json.RawMessage(`"world"`)})
	if err != nil {
		t.Fatalf("ExecuteCommand() error = %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(result, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded["greeting"] != "hello, world" {
		t.Errorf("greeting = %q, want %q", decoded["greeting"], "hello, world")
	}

	if err := manager.ShutdownAll(ctx); err != nil {
		t.Fatalf("ShutdownAll() error = %v", err)
	}
}

func TestManagerExecuteCommandRejectsMissingRequiredArgument(t *testing.T) {
	manifestPath := writeTestManifest(t)
	manager := pluginhost.NewManager(manifestPath, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := manager.EnsureInitialized(ctx, ""); err != nil {
		t.Fatalf("EnsureInitialized() error = %v", err)
	}

	defer func() { _ = manager.ShutdownAll(ctx) }()

	if _, err := manager.ExecuteCommand(ctx, "greeter.hello", nil); err == nil {
		t.Fatal("expected an error for a missing required argument")
	}
}

func TestManagerExecuteCommandUnknownCommand(t *testing.T) {
	manifestPath := writeTestManifest(t)
	manager := pluginhost.NewManager(manifestPath, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := manager.EnsureInitialized(ctx, ""); err != nil {
		t.Fatalf("EnsureInitialized() error = %v", err)
	}

	defer func() { _ = manager.ShutdownAll(ctx) }()

	if _, err := manager.ExecuteCommand(ctx, "does.not.exist", nil); err == nil {
		t.Fatal("expected an error for an unregistered command")
	}
}
