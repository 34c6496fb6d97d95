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

package hpp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
)

// ReadLine reads lines from r until it finds one that is not empty once
// trimmed, skipping blank lines the way both ends of the protocol are
// required to. It returns io.EOF once the underlying reader is exhausted
// with no more non-blank lines.
func ReadLine(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); strings.TrimSpace(line) != "" {
			return line, nil
		}

		if err != nil {
			return "", fmt.Errorf("%w", err)
		}
	}
}

// WriteLine marshals v to JSON and writes it to w followed by a newline,
// then flushes w.
func WriteLine(w *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write message terminator: %w", err)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush message: %w", err)
	}

	return nil
}

// ReadHostRequest reads the next HostRequest line from r.
func ReadHostRequest(r *bufio.Reader) (HostRequest, error) {
	line, err := ReadLine(r)
	if err != nil {
		return HostRequest{}, err
	}

	var req HostRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return HostRequest{}, fmt.Errorf("failed to unmarshal host request: %w", err)
	}

	return req, nil
}

// ReadPluginMessage reads the next PluginMessage line from r.
func ReadPluginMessage(r *bufio.Reader) (PluginMessage, error) {
	line, err := ReadLine(r)
	if err != nil {
		return nil, err
	}

	return UnmarshalPluginMessage([]byte(line))
}
