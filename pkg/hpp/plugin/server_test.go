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

package plugin_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/helix-editor/plugin-host/pkg/hpp"
	hppplugin "github.com/helix-editor/plugin-host/pkg/hpp/plugin"
)

type echoPlugin struct{}

func (echoPlugin) Name() string { return "echo" }

func (echoPlugin) Initialize(_ *hppplugin.InitializeContext, registrar hppplugin.Registrar) error {
	return registrar.RegisterCommand(hppplugin.CommandSpec{
		ID:          "echo.say",
		Title:       "Say",
		Description: "Echoes its argument.",
		Args:        nil,
	})
}

func (echoPlugin) Execute(_ *hppplugin.CommandContext, command string, arguments []json.RawMessage) (any, error) {
	if command != "echo.say" {
		return nil, errUnknownCommand
	}

	if len(arguments) == 0 {
		return nil, errMissingArgument
	}

	var s string
	if err := json.Unmarshal(arguments[0], &s); err != nil {
		return nil, err
	}

	return map[string]string{"echoed": s}, nil
}

var (
	errUnknownCommand  = errors.New("unknown command")
	errMissingArgument = errors.New("missing argument")
)

// harness wires a plugin's ServeIO to an in-process pair of pipes so the
// test can act as the host without spawning a real subprocess.
type harness struct {
	toPlugin   *os.File
	fromPlugin *os.File
	reader     *bufio.Reader
	writer     *bufio.Writer
	done       chan error
}

func newHarness(t *testing.T, p hppplugin.Plugin) *harness {
	t.Helper()

	pluginRead, hostWrite, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}

	hostRead, pluginWrite, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}

	h := &harness{
		toPlugin:   hostWrite,
		fromPlugin: hostRead,
		reader:     bufio.NewReader(hostRead),
		writer:     bufio.NewWriter(hostWrite),
		done:       make(chan error, 1),
	}

	go func() {
		h.done <- hppplugin.ServeIO(p, pluginRead, pluginWrite)
	}()

	t.Cleanup(func() {
		_ = h.toPlugin.Close()
		_ = h.fromPlugin.Close()
	})

	return h
}

func (h *harness) send(t *testing.T, req hpp.HostRequest) {
	t.Helper()

	if err := hpp.WriteLine(h.writer, req); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}
}

func (h *harness) recv(t *testing.T) hpp.PluginMessage {
	t.Helper()

	msg, err := hpp.ReadPluginMessage(h.reader)
	if err != nil {
		t.Fatalf("ReadPluginMessage() error = %v", err)
	}

	return msg
}

func TestServeInitializeThenExecute(t *testing.T) {
	h := newHarness(t, echoPlugin{})

	root := "/workspace"
	h.send(t, hpp.HostRequest{ID: 1, Payload: hpp.InitializePayload{WorkspaceRoot: &root}})

	msg := h.recv(t)

	resp, ok := msg.(hpp.ResponseMessage)
	if !ok || resp.ID != 1 {
		t.Fatalf("initialize response = %+v", msg)
	}

	initialized, ok := resp.Result.(hpp.InitializedResponse)
	if !ok || len(initialized.Commands) != 1 || initialized.Commands[0].ID != "echo.say" {
		t.Fatalf("InitializedResponse = %+v", resp.Result)
	}

	h.send(t, hpp.HostRequest{
		ID: 2,
		Payload: hpp.ExecutePayload{
			Command:   "echo.say",
			Arguments: []json.RawMessage{json.RawMessage(`"hello"`)},
		},
	})

	msg = h.recv(t)

	resp, ok = msg.(hpp.ResponseMessage)
	if !ok || resp.ID != 2 {
		t.Fatalf("execute response = %+v", msg)
	}

	result, ok := resp.Result.(hpp.CommandResultResponse)
	if !ok {
		t.Fatalf("result type = %T, want hpp.CommandResultResponse", resp.Result)
	}

	var decoded map[string]string
	if err := json.Unmarshal(result.Result, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded["echoed"] != "hello" {
		t.Errorf("echoed = %q, want %q", decoded["echoed"], "hello")
	}

	h.send(t, hpp.HostRequest{ID: 3, Payload: hpp.ShutdownPayload{}})

	msg = h.recv(t)
	if resp, ok = msg.(hpp.ResponseMessage); !ok {
		t.Fatalf("shutdown response = %+v", msg)
	}

	if _, ok := resp.Result.(hpp.AcknowledgeResponse); !ok {
		t.Fatalf("shutdown result type = %T, want hpp.AcknowledgeResponse", resp.Result)
	}

	if err := <-h.done; err != nil {
		t.Fatalf("ServeIO() error = %v", err)
	}
}

func TestServeExecuteBeforeInitializeIsRejected(t *testing.T) {
	h := newHarness(t, echoPlugin{})

	h.send(t, hpp.HostRequest{
		ID:      1,
		Payload: hpp.ExecutePayload{Command: "echo.say", Arguments: nil},
	})

	msg := h.recv(t)

	resp, ok := msg.(hpp.ResponseMessage)
	if !ok {
		t.Fatalf("response = %+v", msg)
	}

	errResp, ok := resp.Result.(hpp.CommandErrorResponse)
	if !ok {
		t.Fatalf("result type = %T, want hpp.CommandErrorResponse", resp.Result)
	}

	if errResp.Message == "" {
		t.Error("expected a non-empty error message")
	}

	h.send(t, hpp.HostRequest{ID: 2, Payload: hpp.ShutdownPayload{}})
	h.recv(t)

	if err := <-h.done; err != nil {
		t.Fatalf("ServeIO() error = %v", err)
	}
}

func TestServeDuplicateInitializeIsRejected(t *testing.T) {
	h := newHarness(t, echoPlugin{})

	h.send(t, hpp.HostRequest{ID: 1, Payload: hpp.InitializePayload{WorkspaceRoot: nil}})
	h.recv(t)

	h.send(t, hpp.HostRequest{ID: 2, Payload: hpp.InitializePayload{WorkspaceRoot: nil}})

	msg := h.recv(t)

	resp, ok := msg.(hpp.ResponseMessage)
	if !ok {
		t.Fatalf("response = %+v", msg)
	}

	if _, ok := resp.Result.(hpp.CommandErrorResponse); !ok {
		t.Fatalf("result type = %T, want hpp.CommandErrorResponse", resp.Result)
	}

	h.send(t, hpp.HostRequest{ID: 3, Payload: hpp.ShutdownPayload{}})
	h.recv(t)

	if err := <-h.done; err != nil {
		t.Fatalf("ServeIO() error = %v", err)
	}
}
