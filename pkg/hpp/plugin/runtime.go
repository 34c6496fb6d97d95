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

// Package plugin is the runtime library a plugin binary links against. It
// implements the plugin side of the Helix Plugin Protocol: reading
// [hpp.HostRequest] values from stdin, dispatching them to a [Plugin]
// implementation, and writing the [hpp.PluginMessage] responses back to
// stdout.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
)

// A Plugin is the capability a plugin binary implements. Initialize is
// called exactly once, before any Execute call, and must register every
// command the plugin wants to expose through registrar. Execute is called
// once per workspace/executeCommand request that targets one of those
// commands.
type Plugin interface {
	// Name returns the plugin's display name, used in log messages and as
	// CommandContext.PluginName.
	Name() string

	// Initialize prepares the plugin for the given workspace and registers
	// its commands with registrar.
	Initialize(ctx *InitializeContext, registrar Registrar) error

	// Execute runs command with the given arguments and returns its result,
	// if any. An error here is reported to the host as a command error; it
	// does not terminate the plugin process.
	Execute(ctx *CommandContext, command string, arguments []json.RawMessage) (any, error)
}

// Registrar collects the commands a [Plugin] exposes during Initialize.
type Registrar interface {
	// RegisterCommand adds cmd to the set of commands the plugin handles. It
	// returns an error if a command with the same ID was already registered.
	RegisterCommand(cmd CommandSpec) error
}

// A CommandSpec names one command a plugin can execute. It is the argument
// to [Registrar.RegisterCommand]; [hpp.PluginCommand] is the wire
// representation sent back to the host once registration completes.
type CommandSpec struct {
	ID          string
	Title       string
	Description string
	Args        []ArgumentHint
}

// ArgumentHint documents one positional argument of a command. It mirrors
// [hpp.ArgumentHint]; the plugin runtime library keeps its own copy so
// plugin authors do not need to import the host-facing hpp package types
// directly when declaring commands.
type ArgumentHint struct {
	Name     string
	Type     ArgumentKind
	Required bool
}

// ArgumentKind names the JSON type an [ArgumentHint] expects.
type ArgumentKind string

// Supported argument kinds.
const (
	ArgString ArgumentKind = "string"
	ArgNumber ArgumentKind = "number"
	ArgBool   ArgumentKind = "bool"
	ArgAny    ArgumentKind = "any"
)

// errDuplicateCommand is returned by [commandRegistry.RegisterCommand] when a
// command with the same ID is registered twice.
var errDuplicateCommand = errors.New("command already registered")

// commandRegistry implements Registrar and keeps commands in registration
// order, matching the order plugin authors declare them in.
type commandRegistry struct {
	seen     map[string]struct{}
	commands []CommandSpec
}

func newCommandRegistry() *commandRegistry {
	return &commandRegistry{seen: make(map[string]struct{}), commands: nil}
}

func (r *commandRegistry) RegisterCommand(cmd CommandSpec) error {
	if _, ok := r.seen[cmd.ID]; ok {
		return fmt.Errorf("%w: %q", errDuplicateCommand, cmd.ID)
	}

	r.seen[cmd.ID] = struct{}{}
	r.commands = append(r.commands, cmd)

	return nil
}
