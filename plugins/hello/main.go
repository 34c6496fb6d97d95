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

// Command hello is the simplest possible Helix plugin: it registers one
// command and shows a greeting when it is called. It exists to exercise
// the plugin runtime library end to end with nothing else in the way.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/helix-editor/plugin-host/pkg/hpp"
	plugin "github.com/helix-editor/plugin-host/pkg/hpp/plugin"
)

const sayHelloCommand = "helix.hello.say_hello"

var errUnknownCommand = errors.New("unknown command")

type helloPlugin struct{}

func (helloPlugin) Name() string { return "hello-plugin" }

func (helloPlugin) Initialize(ctx *plugin.InitializeContext, registrar plugin.Registrar) error {
	if err := registrar.RegisterCommand(plugin.CommandSpec{
		ID:          sayHelloCommand,
		Title:       "Say Hello",
		Description: "Display a friendly greeting.",
		Args:        nil,
	}); err != nil {
		return fmt.Errorf("failed to register command: %w", err)
	}

	if ctx.WorkspaceRoot != nil {
		ctx.Log(hpp.LevelInfo, fmt.Sprintf("Hello plugin loaded for workspace: %s", *ctx.WorkspaceRoot))
	}

	return nil
}

func (helloPlugin) Execute(ctx *plugin.CommandContext, command string, _ []json.RawMessage) (any, error) {
	if command != sayHelloCommand {
		return nil, fmt.Errorf("%w: %q", errUnknownCommand, command)
	}

	ctx.ShowMessage(hpp.LevelInfo, "Hello from the Helix plugin runtime!")

	return nil, nil //nolint:nilnil // the command has no meaningful return value
}

func main() {
	if err := plugin.Serve(helloPlugin{}); err != nil {
		slog.Error("hello plugin exited with an error", "err", err)
		os.Exit(1)
	}
}
