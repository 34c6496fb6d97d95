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

package lspadapter

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/helix-editor/plugin-host/pkg/hpp"
)

// ShowMessage implements [pluginhost.EditorClient] by sending a
// window/showMessage notification, surfacing message in the editor's UI.
func (a *Adapter) ShowMessage(level hpp.MessageLevel, message string) {
	a.notify(protocol.ServerWindowShowMessage, protocol.ShowMessageParams{
		Type:    messageType(level),
		Message: message,
	})
}

// LogMessage implements [pluginhost.EditorClient] by sending a
// window/logMessage notification, which most editors route to a log panel
// rather than a visible popup.
func (a *Adapter) LogMessage(level hpp.MessageLevel, message string) {
	a.notify(protocol.ServerWindowLogMessage, protocol.LogMessageParams{
		Type:    messageType(level),
		Message: message,
	})
}

// notify sends params to the editor over the connection captured at
// initialize time. Before the editor's initialize request arrives there is
// nowhere to send an event, so it is dropped. initialize stores the
// connection before any plugin is spawned, so events a plugin emits during
// its own Initialize are delivered.
func (a *Adapter) notify(method string, params any) {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()

	if ctx == nil {
		return
	}

	ctx.Notify(method, params)
}

func messageType(level hpp.MessageLevel) protocol.MessageType {
	switch level {
	case hpp.LevelError:
		return protocol.MessageTypeError
	case hpp.LevelWarning:
		return protocol.MessageTypeWarning
	case hpp.LevelInfo:
		return protocol.MessageTypeInfo
	case hpp.LevelLog:
		return protocol.MessageTypeLog
	default:
		return protocol.MessageTypeLog
	}
}
