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

// Package lspadapter is the only package in this module that imports an LSP
// library. It translates the Language Server Protocol, spoken over stdio
// with the editor, into calls against an [pluginhost.PluginManager] and
// translates plugin-emitted events back into LSP notifications.
package lspadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/helix-editor/plugin-host/internal/pluginhost"
	"github.com/helix-editor/plugin-host/internal/version"
)

// serverName is reported to the editor in InitializeResult.ServerInfo.
const serverName = "helix-plugin-host"

// Adapter bridges one LSP client connection to one [pluginhost.PluginManager].
// It implements [pluginhost.EditorClient] itself, using the [glsp.Context]
// captured during initialize to send notifications back.
type Adapter struct {
	manager *pluginhost.PluginManager

	mu  sync.Mutex
	ctx *glsp.Context
}

// New returns an Adapter that dispatches workspace/executeCommand calls to
// manager.
func New(manager *pluginhost.PluginManager) *Adapter {
	return &Adapter{manager: manager, ctx: nil}
}

// Handler builds the glsp protocol.Handler for this adapter. It only wires
// the subset of LSP that the plugin host needs to speak: initialize,
// initialized, shutdown, and workspace/executeCommand. Every other LSP
// request falls back to glsp's own MethodNotFound response.
func (a *Adapter) Handler() *protocol.Handler {
	handler := &protocol.Handler{} //nolint:exhaustruct // only the methods the host speaks are wired
	handler.Initialize = a.initialize
	handler.Initialized = a.initialized
	handler.Shutdown = a.shutdown
	handler.WorkspaceExecuteCommand = a.executeCommand

	return handler
}

// Run serves the adapter's handler over stdio until the connection closes.
func (a *Adapter) Run() error {
	srv := glspserver.NewServer(a.Handler(), serverName, false)

	if err := srv.RunStdio(); err != nil {
		return fmt.Errorf("lsp server exited: %w", err)
	}

	return nil
}

func (a *Adapter) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	root := workspaceRoot(params)

	slog.Info("initializing plugins", "workspace_root", root)

	if err := a.manager.EnsureInitialized(context.Background(), root); err != nil {
		return nil, &glsp.ResponseError{
			Code:    glsp.InternalError,
			Message: fmt.Sprintf("failed to initialize plugins: %v", err),
		}
	}

	versionString := version.Version().String()

	result := protocol.InitializeResult{ //nolint:exhaustruct // optional LSP result fields are left unset
		Capabilities: protocol.ServerCapabilities{ //nolint:exhaustruct // only execute-command capability applies here
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{ //nolint:exhaustruct // WorkDoneProgress unused
				Commands: a.manager.CommandNames(),
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{Name: serverName, Version: &versionString},
	}

	return result, nil
}

func (a *Adapter) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	slog.Debug("editor completed the initialize handshake")

	return nil
}

func (a *Adapter) shutdown(_ *glsp.Context) error {
	if err := a.manager.ShutdownAll(context.Background()); err != nil {
		return &glsp.ResponseError{
			Code:    glsp.InternalError,
			Message: fmt.Sprintf("failed to shut down plugins: %v", err),
		}
	}

	return nil
}

func (a *Adapter) executeCommand(_ *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	arguments, err := marshalArguments(params.Arguments)
	if err != nil {
		return nil, &glsp.ResponseError{Code: glsp.InvalidParams, Message: err.Error()}
	}

	result, err := a.manager.ExecuteCommand(context.Background(), params.Command, arguments)
	if err != nil {
		return nil, responseError(err)
	}

	if len(result) == 0 {
		return nil, nil //nolint:nilnil // a command with no return value is a valid, distinct LSP result
	}

	var decoded any
	if err := json.Unmarshal(result, &decoded); err != nil {
		return nil, &glsp.ResponseError{
			Code:    glsp.InternalError,
			Message: fmt.Sprintf("failed to decode command result: %v", err),
		}
	}

	return decoded, nil
}

// responseError maps a pluginhost failure to the JSON-RPC error code the
// original server uses for the same failure: an unregistered command is
// MethodNotFound, a rejected argument is InvalidParams, and everything else
// — a plugin-reported command error or a malformed plugin response — is
// InternalError.
func responseError(err error) error {
	code := glsp.InternalError

	switch {
	case errors.Is(err, pluginhost.ErrCommandNotFound):
		code = glsp.MethodNotFound
	case errors.Is(err, pluginhost.ErrInvalidArguments):
		code = glsp.InvalidParams
	}

	return &glsp.ResponseError{Code: code, Message: err.Error()}
}

// marshalArguments re-encodes the loosely typed argument slice glsp decodes
// JSON-RPC params into back into raw JSON, one value per argument, so they
// can flow through [pluginhost.ValidateArguments] and the wire protocol the
// same way regardless of which editor is driving the host.
func marshalArguments(args []any) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, len(args))

	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal argument %d: %w", i, err)
		}

		raw[i] = data
	}

	return raw, nil
}

// workspaceRoot extracts a filesystem path from InitializeParams.RootURI. A
// non-file URI, or no root at all, yields an empty string; plugins are
// expected to tolerate running without a workspace root.
func workspaceRoot(params *protocol.InitializeParams) string {
	if params.RootURI == nil {
		return ""
	}

	u, err := url.Parse(*params.RootURI)
	if err != nil || u.Scheme != "file" {
		return ""
	}

	return u.Path
}
