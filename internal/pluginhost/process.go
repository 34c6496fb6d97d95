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

// Package pluginhost owns the lifecycle of plugin subprocesses: spawning
// them, speaking the Helix Plugin Protocol over their stdio, and routing
// workspace/executeCommand calls to the plugin that registered the command.
package pluginhost

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helix-editor/plugin-host/internal/fspath"
	"github.com/helix-editor/plugin-host/internal/manifest"
	"github.com/helix-editor/plugin-host/internal/panichandler"
	"github.com/helix-editor/plugin-host/pkg/hpp"
)

// shutdownGrace is how long Shutdown waits for a plugin to exit on its own
// after acknowledging a shutdown request before it is killed.
const shutdownGrace = 3 * time.Second

// A PluginProcess is a single spawned plugin subprocess and the protocol
// state needed to talk to it: the next request ID, the map of requests
// awaiting a reply, and the background goroutines reading its stdout and
// stderr.
type PluginProcess struct {
	name           string
	displayCommand string
	cmd            *exec.Cmd
	stdin          *bufio.Writer
	writeMu        sync.Mutex
	pendingMu      sync.Mutex
	pending        map[uint64]chan hpp.PluginResponse
	nextID         atomic.Uint64
	editor         EditorClient
	done           chan struct{}
	killOnce       sync.Once
}

// Spawn starts the plugin subprocess described by entry and performs no
// protocol handshake; call SendRequest with an InitializePayload separately,
// the way PluginManager.EnsureInitialized does. workspaceRoot, if non-empty,
// is exported to the subprocess as HELIX_WORKSPACE_ROOT.
func Spawn(entry manifest.Entry, manifestDir fspath.Path, workspaceRoot string, editor EditorClient) (*PluginProcess, error) {
	command, err := resolveCommand(entry.Command, manifestDir)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: %w", entry.Name, err)
	}

	cwd := string(manifestDir)

	if entry.Cwd != "" {
		resolved, err := resolveCommand(entry.Cwd, manifestDir)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: failed to resolve cwd: %w", entry.Name, err)
		}

		cwd = resolved
	}

	cmd := exec.Command(command, entry.Args...) //nolint:gosec // command comes from a user-authored manifest
	cmd.Dir = cwd
	cmd.Env = buildEnv(entry, workspaceRoot)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("plugin %q: failed to open stdin pipe: %w", entry.Name, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("plugin %q: failed to open stdout pipe: %w", entry.Name, err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("plugin %q: failed to open stderr pipe: %w", entry.Name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("plugin %q: failed to start %q: %w", entry.Name, command, err)
	}

	if editor == nil {
		editor = noopEditorClient{}
	}

	p := &PluginProcess{
		name:           entry.Name,
		displayCommand: command,
		cmd:            cmd,
		stdin:          bufio.NewWriter(stdin),
		pending:        make(map[uint64]chan hpp.PluginResponse),
		editor:         editor,
		done:           make(chan struct{}),
	}

	runtime.SetFinalizer(p, (*PluginProcess).killIfRunning)

	go p.readStdout(stdout)
	go p.readStderr(stderr)

	slog.Debug("spawned plugin", "plugin", p.name, "command", p.displayCommand)

	return p, nil
}

// Name returns the plugin's manifest name.
func (p *PluginProcess) Name() string {
	return p.name
}

// SendRequest sends payload to the plugin and blocks until it replies, ctx
// is cancelled, or the plugin process exits before replying.
func (p *PluginProcess) SendRequest(ctx context.Context, payload hpp.HostRequestPayload) (hpp.PluginResponse, error) {
	id := p.nextID.Add(1)
	reply := make(chan hpp.PluginResponse, 1)

	p.pendingMu.Lock()
	p.pending[id] = reply
	p.pendingMu.Unlock()

	if err := p.write(hpp.HostRequest{ID: id, Payload: payload}); err != nil {
		p.pendingMu.Lock()
		delete(p.pending, id)
		p.pendingMu.Unlock()

		return nil, fmt.Errorf("plugin %q: %w", p.name, err)
	}

	select {
	case resp := <-reply:
		return resp, nil
	case <-p.done:
		return nil, fmt.Errorf("%w: %s", errTerminated, p.name)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w", ctx.Err())
	}
}

// Shutdown asks the plugin to exit cleanly, waiting up to shutdownGrace
// before killing it. It always returns after the process has exited.
func (p *PluginProcess) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	if _, err := p.SendRequest(shutdownCtx, hpp.ShutdownPayload{}); err != nil {
		slog.Warn("plugin did not acknowledge shutdown", "plugin", p.name, "err", err)
	}

	select {
	case <-p.done:
	case <-time.After(shutdownGrace):
		slog.Warn("plugin did not exit after shutdown, killing it", "plugin", p.name)
		p.killIfRunning()
		<-p.done
	}

	return nil
}

// killIfRunning forcibly terminates the subprocess. It is safe to call more
// than once and is registered as p's finalizer as a last-resort safety net
// for callers that forget to call Shutdown; Go has no deterministic
// destructor, so this is the closest analogue to kill_on_drop.
func (p *PluginProcess) killIfRunning() {
	p.killOnce.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
	})
}

func (p *PluginProcess) write(req hpp.HostRequest) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := hpp.WriteLine(p.stdin, req); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	return nil
}

func (p *PluginProcess) readStdout(stdout io.Reader) {
	defer panichandler.WithStackTrace()()

	r := bufio.NewReader(stdout)

	for {
		msg, err := hpp.ReadPluginMessage(r)
		if err != nil {
			break
		}

		switch m := msg.(type) {
		case hpp.ResponseMessage:
			p.resolvePending(m.ID, m.Result)
		case hpp.EventMessage:
			p.handleEvent(m.Event)
		}
	}

	p.drainPending()
	close(p.done)

	if err := p.cmd.Wait(); err != nil {
		slog.Debug("plugin process exited", "plugin", p.name, "err", err)
	}
}

func (p *PluginProcess) readStderr(stderr io.Reader) {
	defer panichandler.WithStackTrace()()

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		slog.Warn("plugin stderr", "plugin", p.name, "line", scanner.Text())
	}
}

func (p *PluginProcess) resolvePending(id uint64, result hpp.PluginResponse) {
	p.pendingMu.Lock()
	ch, ok := p.pending[id]

	if ok {
		delete(p.pending, id)
	}

	p.pendingMu.Unlock()

	if !ok {
		slog.Warn("plugin responded to unknown request id", "plugin", p.name, "id", id)

		return
	}

	ch <- result
}

func (p *PluginProcess) drainPending() {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()

	for id, ch := range p.pending {
		ch <- hpp.CommandErrorResponse{Message: fmt.Sprintf("plugin `%s` disconnected", p.name)}
		delete(p.pending, id)
	}
}

func (p *PluginProcess) handleEvent(event hpp.PluginEvent) {
	switch e := event.(type) {
	case hpp.ShowMessageEvent:
		p.editor.ShowMessage(e.Level, fmt.Sprintf("[%s] %s", p.name, e.Message))
	case hpp.LogEvent:
		p.editor.LogMessage(e.Level, fmt.Sprintf("[%s] %s", p.name, e.Message))
	}
}

// resolveCommand implements the same three-way resolution the reference
// implementation uses: an absolute path is used as-is, a path that looks
// relative (contains a separator or starts with ".") is joined to the
// manifest's directory, and anything else is looked up on PATH.
func resolveCommand(command string, manifestDir fspath.Path) (string, error) {
	if filepath.IsAbs(command) {
		return command, nil
	}

	if strings.ContainsRune(command, filepath.Separator) || strings.HasPrefix(command, ".") {
		return filepath.Join(string(manifestDir), command), nil
	}

	resolved, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q on PATH: %w", command, err)
	}

	return resolved, nil
}

func buildEnv(entry manifest.Entry, workspaceRoot string) []string {
	env := os.Environ()

	for k, v := range entry.Env {
		env = append(env, k+"="+v)
	}

	env = append(env, "HELIX_PLUGIN_NAME="+entry.Name)

	if workspaceRoot != "" {
		env = append(env, "HELIX_WORKSPACE_ROOT="+workspaceRoot)
	}

	return env
}
