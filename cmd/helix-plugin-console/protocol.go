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

package main

import (
	"encoding/json"

	"github.com/helix-editor/plugin-host/pkg/hpp"
)

// commandInfo is the console's trimmed-down view of a registered command,
// used for "list". "call" does not consult it and sends its arguments
// unchecked.
type commandInfo struct {
	ID    string
	Title string
}

func hppInitializePayload(workspaceRoot *string) hpp.HostRequestPayload {
	return hpp.InitializePayload{WorkspaceRoot: workspaceRoot}
}

func hppExecutePayload(command string, arguments []json.RawMessage) hpp.HostRequestPayload {
	return hpp.ExecutePayload{Command: command, Arguments: arguments}
}

func initializedCommands(resp hpp.PluginResponse) ([]commandInfo, bool) {
	initialized, ok := resp.(hpp.InitializedResponse)
	if !ok {
		return nil, false
	}

	commands := make([]commandInfo, len(initialized.Commands))
	for i, c := range initialized.Commands {
		commands[i] = commandInfo{ID: c.ID, Title: c.Title}
	}

	return commands, true
}

// commandResponse unpacks resp into a display-ready result string and/or
// error message. At most one of isResult/isError is true; both are false for
// a CommandResultResponse with no result and for any other variant, such as
// an AcknowledgeResponse, which callCommand never sends a request that
// expects.
func commandResponse(resp hpp.PluginResponse) (result string, isResult bool, errMsg string, isError bool) {
	switch r := resp.(type) {
	case hpp.CommandResultResponse:
		if len(r.Result) == 0 {
			return "", false, "", false
		}

		return string(r.Result), true, "", false
	case hpp.CommandErrorResponse:
		return "", false, r.Message, true
	default:
		return "", false, "", false
	}
}
