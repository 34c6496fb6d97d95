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

package pluginhost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/helix-editor/plugin-host/internal/fspath"
	"github.com/helix-editor/plugin-host/internal/manifest"
	"github.com/helix-editor/plugin-host/pkg/hpp"
)

// commandBinding is the registered owner of one command ID.
type commandBinding struct {
	process *PluginProcess
	command hpp.PluginCommand
}

// A PluginManager owns every plugin subprocess for one workspace and routes
// workspace/executeCommand calls to the plugin that registered each
// command. The zero value is not usable; construct one with NewManager.
type PluginManager struct {
	manifestPath fspath.Path
	editor       EditorClient

	mu          sync.Mutex
	initialized bool
	processes   []*PluginProcess
	commands    map[string]commandBinding
}

// NewManager returns a PluginManager that loads its manifest from
// manifestPath and forwards plugin-emitted events to editor.
func NewManager(manifestPath fspath.Path, editor EditorClient) *PluginManager {
	if editor == nil {
		editor = noopEditorClient{}
	}

	return &PluginManager{
		manifestPath: manifestPath,
		editor:       editor,
		initialized:  false,
		processes:    nil,
		commands:     nil,
	}
}

// EnsureInitialized spawns every plugin in the manifest and registers its
// commands. It is idempotent: a call after the first successful call
// returns immediately. Spawn errors for individual entries are logged and
// skipped rather than aborting the whole workspace, matching the reference
// server's ensure_initialized.
func (m *PluginManager) EnsureInitialized(ctx context.Context, workspaceRoot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	man, err := manifest.Load(m.manifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	manifestDir := m.manifestPath.Dir()
	processes := make([]*PluginProcess, len(man.Plugins))

	group, groupCtx := errgroup.WithContext(ctx)
	_ = groupCtx // each spawn is independent; a single bad entry must not cancel the others

	for i, entry := range man.Plugins {
		group.Go(func() error {
			proc, err := Spawn(entry, manifestDir, workspaceRoot, m.editor)
			if err != nil {
				slog.Warn("failed to spawn plugin, skipping it", "plugin", entry.Name, "err", err)

				return nil
			}

			processes[i] = proc

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("failed to spawn plugins: %w", err)
	}

	commands := make(map[string]commandBinding)

	for i, proc := range processes {
		if proc == nil {
			continue
		}

		if err := m.registerPlugin(ctx, proc, workspaceRoot, commands); err != nil {
			slog.Warn("failed to initialize plugin, shutting it down", "plugin", man.Plugins[i].Name, "err", err)

			proc.killIfRunning()

			continue
		}

		m.processes = append(m.processes, proc)
	}

	m.commands = commands
	m.initialized = true

	return nil
}

// registerPlugin performs the initialize handshake with proc and merges its
// commands into commands. On a collision the later registration replaces the
// earlier one and a warning naming both plugins is logged; the earlier
// plugin keeps running but is no longer routed that command.
func (m *PluginManager) registerPlugin(
	ctx context.Context,
	proc *PluginProcess,
	workspaceRoot string,
	commands map[string]commandBinding,
) error {
	var root *string
	if workspaceRoot != "" {
		root = &workspaceRoot
	}

	resp, err := proc.SendRequest(ctx, hpp.InitializePayload{WorkspaceRoot: root})
	if err != nil {
		return err
	}

	initialized, ok := resp.(hpp.InitializedResponse)
	if !ok {
		return fmt.Errorf("%w: got %T in answer to initialize", errUnexpectedResponse, resp)
	}

	for _, cmd := range initialized.Commands {
		if previous, exists := commands[cmd.ID]; exists {
			slog.Warn(
				"duplicate command registration, the later plugin wins",
				"command", cmd.ID,
				"plugin", proc.Name(),
				"superseded_plugin", previous.process.Name(),
			)
		}

		commands[cmd.ID] = commandBinding{process: proc, command: cmd}
	}

	return nil
}

// SetEditor replaces the EditorClient plugin events are forwarded to. It
// must be called before EnsureInitialized; the adapter that implements
// EditorClient typically needs a reference to the manager itself, so it
// cannot be constructed before NewManager returns.
func (m *PluginManager) SetEditor(editor EditorClient) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if editor == nil {
		editor = noopEditorClient{}
	}

	m.editor = editor
}

// CommandNames returns every registered command ID, sorted for a
// deterministic ServerCapabilities.ExecuteCommandProvider.Commands.
func (m *PluginManager) CommandNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.commands))
	for name := range m.commands {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// LookupCommand returns the registered PluginCommand for id, if any.
func (m *PluginManager) LookupCommand(id string) (hpp.PluginCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	binding, ok := m.commands[id]

	return binding.command, ok
}

// ExecuteCommand dispatches command to the plugin that registered it.
func (m *PluginManager) ExecuteCommand(ctx context.Context, command string, arguments []json.RawMessage) (json.RawMessage, error) {
	m.mu.Lock()

	if !m.initialized {
		m.mu.Unlock()

		return nil, errNotInitialized
	}

	binding, ok := m.commands[command]

	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, command)
	}

	if err := ValidateArguments(binding.command.Args, arguments); err != nil {
		return nil, err
	}

	resp, err := binding.process.SendRequest(ctx, hpp.ExecutePayload{Command: command, Arguments: arguments})
	if err != nil {
		return nil, err
	}

	switch result := resp.(type) {
	case hpp.CommandResultResponse:
		return result.Result, nil
	case hpp.CommandErrorResponse:
		return nil, fmt.Errorf("%s", result.Message) //nolint:err113 // the message originates from the plugin, not a static error
	default:
		return nil, fmt.Errorf("%w: got %T", errUnexpectedResponse, resp)
	}
}

// ShutdownAll asks every plugin to shut down, in parallel, and resets the
// manager so a later EnsureInitialized call spawns everything again.
func (m *PluginManager) ShutdownAll(ctx context.Context) error {
	m.mu.Lock()
	processes := m.processes
	m.mu.Unlock()

	var group errgroup.Group

	for _, proc := range processes {
		group.Go(func() error {
			return proc.Shutdown(ctx)
		})
	}

	err := group.Wait()

	m.mu.Lock()
	m.processes = nil
	m.commands = nil
	m.initialized = false
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to shut down all plugins: %w", err)
	}

	return nil
}
