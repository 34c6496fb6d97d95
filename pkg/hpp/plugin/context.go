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
	"log/slog"
	"sync"

	"github.com/helix-editor/plugin-host/pkg/hpp"
)

// connection is the shared, mutex-guarded stdout writer a plugin uses to
// emit both request responses and unprompted events. Go has no borrow
// checker to keep two goroutines from writing to stdout at once the way
// Rust's Mutex<ChildStdin> analogue does on the host side, so every write
// here is funneled through one lock.
type connection struct {
	mu  sync.Mutex
	out *bufio.Writer
}

func (c *connection) send(msg hpp.PluginMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return hpp.WriteLine(c.out, msg)
}

// InitializeContext is passed to [Plugin.Initialize]. It reports the
// workspace root the host resolved and lets the plugin emit diagnostics
// before it has registered any commands.
type InitializeContext struct {
	conn          *connection
	WorkspaceRoot *string
}

// ShowMessage asks the host to surface message to the editor user.
func (c *InitializeContext) ShowMessage(level hpp.MessageLevel, message string) {
	emit(c.conn, hpp.ShowMessageEvent{Level: level, Message: message})
}

// Log asks the host to record message without necessarily showing it to the
// user.
func (c *InitializeContext) Log(level hpp.MessageLevel, message string) {
	emit(c.conn, hpp.LogEvent{Level: level, Message: message})
}

// CommandContext is passed to [Plugin.Execute].
type CommandContext struct {
	conn        *connection
	PluginName  string
	CommandName string
}

// ShowMessage asks the host to surface message to the editor user.
func (c *CommandContext) ShowMessage(level hpp.MessageLevel, message string) {
	emit(c.conn, hpp.ShowMessageEvent{Level: level, Message: message})
}

// Log asks the host to record message without necessarily showing it to the
// user.
func (c *CommandContext) Log(level hpp.MessageLevel, message string) {
	emit(c.conn, hpp.LogEvent{Level: level, Message: message})
}

func emit(conn *connection, event hpp.PluginEvent) {
	if err := conn.send(hpp.EventMessage{Event: event}); err != nil {
		slog.Warn("failed to send event to host", "err", err)
	}
}
