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

import "errors"

// Sentinel errors returned by this package.
var (
	// errTerminated is wrapped with the plugin's name when a pending request
	// is resolved because the plugin's stdout closed before it replied.
	errTerminated = errors.New("plugin terminated before responding")

	// errUnexpectedResponse is returned when a plugin answers a request with
	// a response variant that does not make sense for it, e.g. an
	// InitializedResponse in answer to an execute request.
	errUnexpectedResponse = errors.New("plugin sent an unexpected response")

	// ErrCommandNotFound is returned by PluginManager.ExecuteCommand for a
	// command no registered plugin declared. Exported so internal/lspadapter
	// can map it to the JSON-RPC MethodNotFound code with errors.Is.
	ErrCommandNotFound = errors.New("command not found")

	// errNotInitialized is returned when a command is requested before
	// EnsureInitialized has completed successfully.
	errNotInitialized = errors.New("plugin manager not initialized")
)

// PathErrors aggregates several errors into one, joining their messages with
// "; ". EnsureInitialized does not return it: a spawn failure for one entry
// is logged and that entry is skipped.
type PathErrors []error

func (e PathErrors) Error() string {
	if len(e) == 0 {
		return "no errors"
	}

	if len(e) == 1 {
		return e[0].Error()
	}

	s := e[0].Error()
	for _, err := range e[1:] {
		s += "; " + err.Error()
	}

	return s
}

// Unwrap allows errors.Is/errors.As to see through PathErrors.
func (e PathErrors) Unwrap() []error {
	return e
}
