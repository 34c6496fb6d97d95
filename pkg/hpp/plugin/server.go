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

package plugin

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/helix-editor/plugin-host/pkg/hpp"
)

// errAlreadyInitialized and errNotInitialized mirror the two state-guard
// errors the Rust reference runtime reports back to the host rather than
// panicking on: the host is expected to send exactly one initialize
// request before any execute request, but a misbehaving host should get a
// command_error, not a crashed plugin.
var (
	errAlreadyInitialized = errors.New("plugin already initialized")
	errNotInitialized     = errors.New("plugin not initialized")
)

// Serve runs p's event loop against stdin/stdout until the host sends a
// shutdown request or stdin is closed. It is the entire body of a plugin's
// main function.
func Serve(p Plugin) error {
	return ServeIO(p, os.Stdin, os.Stdout)
}

// ServeIO is Serve with explicit streams, primarily useful for tests that
// run a plugin in-process over pipes.
func ServeIO(p Plugin, stdin *os.File, stdout *os.File) error {
	in := bufio.NewReader(stdin)
	conn := &connection{out: bufio.NewWriter(stdout)} //nolint:exhaustruct // mu zero value is fine

	initialized := false

	for {
		req, err := hpp.ReadHostRequest(in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("failed to read host request: %w", err)
		}

		switch payload := req.Payload.(type) {
		case hpp.InitializePayload:
			if initialized {
				slog.Error("received duplicate initialize request", "plugin", p.Name())

				if err := respond(conn, req.ID, hpp.CommandErrorResponse{Message: errAlreadyInitialized.Error()}); err != nil {
					return err
				}

				continue
			}

			registry := newCommandRegistry()
			initCtx := &InitializeContext{conn: conn, WorkspaceRoot: payload.WorkspaceRoot}

			if err := p.Initialize(initCtx, registry); err != nil {
				return fmt.Errorf("plugin %s failed to initialize: %w", p.Name(), err)
			}

			initialized = true

			if err := respond(conn, req.ID, hpp.InitializedResponse{Commands: toWireCommands(registry.commands)}); err != nil {
				return err
			}
		case hpp.ExecutePayload:
			if !initialized {
				if err := respond(conn, req.ID, hpp.CommandErrorResponse{Message: errNotInitialized.Error()}); err != nil {
					return err
				}

				continue
			}

			cmdCtx := &CommandContext{conn: conn, PluginName: p.Name(), CommandName: payload.Command}

			result, err := p.Execute(cmdCtx, payload.Command, payload.Arguments)
			if err != nil {
				slog.Error("command failed", "plugin", p.Name(), "command", payload.Command, "err", err)

				if err := respond(conn, req.ID, hpp.CommandErrorResponse{Message: err.Error()}); err != nil {
					return err
				}

				continue
			}

			resultJSON, err := marshalResult(result)
			if err != nil {
				return err
			}

			if err := respond(conn, req.ID, hpp.CommandResultResponse{Result: resultJSON}); err != nil {
				return err
			}
		case hpp.ShutdownPayload:
			slog.Debug("plugin shutting down", "plugin", p.Name())

			if err := respond(conn, req.ID, hpp.AcknowledgeResponse{}); err != nil {
				return err
			}

			return nil
		default:
			return fmt.Errorf("%w: %T", errUnknownRequestPayload, req.Payload)
		}
	}
}

func respond(conn *connection, id uint64, result hpp.PluginResponse) error {
	if err := conn.send(hpp.ResponseMessage{ID: id, Result: result}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func marshalResult(result any) (json.RawMessage, error) {
	if result == nil {
		return nil, nil //nolint:nilnil // absent result is a valid, distinct wire value
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command result: %w", err)
	}

	return data, nil
}

func toWireCommands(specs []CommandSpec) []hpp.PluginCommand {
	commands := make([]hpp.PluginCommand, len(specs))

	for i, spec := range specs {
		cmd := hpp.NewPluginCommand(spec.ID, spec.Title).WithDescription(spec.Description)

		if len(spec.Args) > 0 {
			args := make([]hpp.ArgumentHint, len(spec.Args))
			for j, a := range spec.Args {
				args[j] = hpp.ArgumentHint{Name: a.Name, Type: hpp.ArgumentType(a.Type), Required: a.Required}
			}

			cmd = cmd.WithArgs(args...)
		}

		commands[i] = cmd
	}

	return commands
}

var errUnknownRequestPayload = errors.New("plugin: unhandled host request payload")
