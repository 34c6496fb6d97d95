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
	"testing"
	"time"

	"github.com/helix-editor/plugin-host/internal/fspath"
	"github.com/helix-editor/plugin-host/internal/manifest"
	"github.com/helix-editor/plugin-host/internal/pluginhost"
	"github.com/helix-editor/plugin-host/pkg/hpp"
	hppplugin "github.com/helix-editor/plugin-host/pkg/hpp/plugin"
)

// helperProcessEnv, when set, reroutes this test binary's invocation into
// running as a plugin subprocess instead of running any *_test.go tests.
// This is the same self-exec trick os/exec's own tests use to get a real,
// independent process to spawn without shipping a separate fixture binary.
const helperProcessEnv = "HELIX_PLUGIN_HOST_TEST_HELPER"

// TestMain intercepts the helper-process re-exec before the testing package
// gets a chance to parse flags as test flags.
func TestMain(m *testing.M) {
	if os.Getenv(helperProcessEnv) != "" {
		runHelperPlugin()
		os.Exit(0)
	}

	os.Exit(m.Run())
}

type greeterPlugin struct{}

func (greeterPlugin) Name() string { return "greeter" }

func (greeterPlugin) Initialize(_ *hppplugin.InitializeContext, registrar hppplugin.Registrar) error {
	return registrar.RegisterCommand(hppplugin.CommandSpec{
		ID:          "greeter.hello",
		Title:       "Hello",
		Description: "Returns a greeting.",
		Args: []hppplugin.ArgumentHint{
			{Name: "name", Type: hppplugin.ArgString, Required: true},
		},
	})
}

func (greeterPlugin) Execute(_ *hppplugin.CommandContext, _ string, arguments []json.RawMessage) (any, error) {
	var name string
	if len(arguments) > 0 {
		_ = json.Unmarshal(arguments[0], &name)
	}

	return map[string]string{"greeting": "hello, " + name}, nil
}

func runHelperPlugin() {
	_ = hppplugin.Serve(greeterPlugin{})
}

func testEntry(t *testing.T) manifest.Entry {
	t.Helper()

	self, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable() error = %v", err)
	}

	return manifest.Entry{
		Name:    "greeter",
		Command: self,
		Args:    []string{"-test.run=^$"},
		Env:     map[string]string{helperProcessEnv: "1"},
		Cwd:     "",
	}
}

func TestSpawnInitializeExecuteShutdown(t *testing.T) {
	manifestDir := fspath.Path(t.TempDir())

	proc, err := pluginhost.Spawn(testEntry(t), manifestDir, "/workspace", nil)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	root := "/workspace"

	resp, err := proc.SendRequest(ctx, hpp.InitializePayload{WorkspaceRoot: &root})
	if err != nil {
		t.Fatalf("SendRequest(initialize) error = %v", err)
	}

	initialized, ok := resp.(hpp.InitializedResponse)
	if !ok || len(initialized.Commands) != 1 || initialized.Commands[0].ID != "greeter.hello" {
		t.Fatalf("InitializedResponse = %+v", resp)
	}

	resp, err = proc.SendRequest(ctx, hpp.ExecutePayload{
		Command:   "greeter.hello",
		Arguments: []json.RawMessage{json.RawMessage(`"world"`)},
	})
	if err != nil {
		t.Fatalf("SendRequest(execute) error = %v", err)
	}

	result, ok := resp.(hpp.CommandResultResponse)
	if !ok {
		t.Fatalf("result type = %T, want hpp.CommandResultResponse", resp)
	}

	var decoded map[string]string
	if err := json.Unmarshal(result.Result, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded["greeting"] != "hello, world" {
		t.Errorf("greeting = %q, want %q", decoded["greeting"], "hello, world")
	}

	if err := proc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestSpawnUnresolvableCommandFails(t *testing.T) {
	manifestDir := fspath.Path(t.TempDir())

	entry := manifest.Entry{
		Name:    "missing",
		Command: "definitely-not-a-real-binary-xyz",
		Args:    nil,
		Env:     nil,
		Cwd:     "",
	}

	if _, err := pluginhost.Spawn(entry, manifestDir, "", nil); err == nil {
		t.Fatal("expected an error resolving a nonexistent command")
	}
}
