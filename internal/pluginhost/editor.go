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

import "github.com/helix-editor/plugin-host/pkg/hpp"

// EditorClient is the host's view of the editor-facing transport. It is
// implemented by internal/lspadapter, kept separate here so this package
// never imports an LSP library directly and can be tested without one.
type EditorClient interface {
	// ShowMessage asks the editor to surface message to the user.
	ShowMessage(level hpp.MessageLevel, message string)

	// LogMessage asks the editor to record message in its own log.
	LogMessage(level hpp.MessageLevel, message string)
}

// noopEditorClient discards every event. It is used when a PluginManager is
// constructed before the editor connection exists yet, and in tests.
type noopEditorClient struct{}

func (noopEditorClient) ShowMessage(hpp.MessageLevel, string) {}
func (noopEditorClient) LogMessage(hpp.MessageLevel, string)  {}
