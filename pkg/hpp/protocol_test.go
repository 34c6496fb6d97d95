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

package hpp_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/helix-editor/plugin-host/pkg/hpp"
)

func TestHostRequestRoundTrip(t *testing.T) {
	root := "/workspace"
	req := hpp.HostRequest{
		ID:      1,
		Payload: hpp.InitializePayload{WorkspaceRoot: &root},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got hpp.HostRequest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.ID != req.ID {
		t.Errorf("ID = %d, want %d", got.ID, req.ID)
	}

	payload, ok := got.Payload.(hpp.InitializePayload)
	if !ok {
		t.Fatalf("Payload type = %T, want hpp.InitializePayload", got.Payload)
	}

	if payload.WorkspaceRoot == nil || *payload.WorkspaceRoot != root {
		t.Errorf("WorkspaceRoot = %v, want %q", payload.WorkspaceRoot, root)
	}
}

func TestExecutePayloadRoundTrip(t *testing.T) {
	req := hpp.HostRequest{
		ID: 7,
		Payload: hpp.ExecutePayload{
			Command:   "helix.hello.say_hello",
			Arguments: []json.RawMessage{json.RawMessage(`"arg"`)},
		},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if !strings.Contains(string(data), `"type":"execute"`) {
		t.Fatalf("marshaled payload missing type tag: %s", data)
	}

	var got hpp.HostRequest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	payload, ok := got.Payload.(hpp.ExecutePayload)
	if !ok {
		t.Fatalf("Payload type = %T, want hpp.ExecutePayload", got.Payload)
	}

	if payload.Command != "helix.hello.say_hello" {
		t.Errorf("Command = %q", payload.Command)
	}

	if len(payload.Arguments) != 1 || string(payload.Arguments[0]) != `"arg"` {
		t.Errorf("Arguments = %v", payload.Arguments)
	}
}

func TestPluginMessageRoundTrip(t *testing.T) {
	msg := hpp.ResponseMessage{
		ID: 3,
		Result: hpp.InitializedResponse{
			Commands: []hpp.PluginCommand{
				hpp.NewPluginCommand("helix.hello.say_hello", "Say Hello").WithDescription("Display a greeting."),
			},
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := hpp.UnmarshalPluginMessage(data)
	if err != nil {
		t.Fatalf("UnmarshalPluginMessage() error = %v", err)
	}

	resp, ok := got.(hpp.ResponseMessage)
	if !ok {
		t.Fatalf("message type = %T, want hpp.ResponseMessage", got)
	}

	if resp.ID != 3 {
		t.Errorf("ID = %d, want 3", resp.ID)
	}

	initialized, ok := resp.Result.(hpp.InitializedResponse)
	if !ok {
		t.Fatalf("result type = %T, want hpp.InitializedResponse", resp.Result)
	}

	if len(initialized.Commands) != 1 || initialized.Commands[0].ID != "helix.hello.say_hello" {
		t.Errorf("Commands = %+v", initialized.Commands)
	}
}

func TestEventMessageRoundTrip(t *testing.T) {
	msg := hpp.EventMessage{Event: hpp.ShowMessageEvent{Level: hpp.LevelInfo, Message: "hi"}}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := hpp.UnmarshalPluginMessage(data)
	if err != nil {
		t.Fatalf("UnmarshalPluginMessage() error = %v", err)
	}

	event, ok := got.(hpp.EventMessage)
	if !ok {
		t.Fatalf("message type = %T, want hpp.EventMessage", got)
	}

	show, ok := event.Event.(hpp.ShowMessageEvent)
	if !ok {
		t.Fatalf("event type = %T, want hpp.ShowMessageEvent", event.Event)
	}

	if show.Level != hpp.LevelInfo || show.Message != "hi" {
		t.Errorf("ShowMessageEvent = %+v", show)
	}
}

func TestUnmarshalPluginMessageUnknownTag(t *testing.T) {
	_, err := hpp.UnmarshalPluginMessage([]byte(`{"type":"bogus"}`))
	if err == nil {
		t.Fatal("expected an error for an unknown message tag")
	}
}

func TestReadLineSkipsBlankLines(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\n\n  \nhello\n"))

	line, err := hpp.ReadLine(r)
	if err != nil {
		t.Fatalf("ReadLine() error = %v", err)
	}

	if line != "hello" {
		t.Errorf("ReadLine() = %q, want %q", line, "hello")
	}
}

func TestWriteLineThenReadHostRequest(t *testing.T) {
	var buf bytes.Buffer

	w := bufio.NewWriter(&buf)
	req := hpp.HostRequest{ID: 42, Payload: hpp.ShutdownPayload{}}

	if err := hpp.WriteLine(w, req); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}

	got, err := hpp.ReadHostRequest(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadHostRequest() error = %v", err)
	}

	if got.ID != 42 {
		t.Errorf("ID = %d, want 42", got.ID)
	}

	if _, ok := got.Payload.(hpp.ShutdownPayload); !ok {
		t.Errorf("Payload type = %T, want hpp.ShutdownPayload", got.Payload)
	}
}
