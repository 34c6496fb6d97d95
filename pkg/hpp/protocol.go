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

// Package hpp defines the Helix Plugin Protocol, the line-delimited JSON
// protocol spoken between the plugin host and a plugin subprocess over its
// stdin and stdout. Unlike the Content-Length-framed transport the host
// speaks to the editor, every message here is exactly one JSON value
// terminated by a newline; blank lines are ignored by both sides.
package hpp

import (
	"encoding/json"
	"fmt"
)

// MessageLevel is the severity attached to a [ShowMessageEvent] or
// [LogEvent].
type MessageLevel string

// Supported message levels.
const (
	LevelError   MessageLevel = "error"
	LevelWarning MessageLevel = "warning"
	LevelInfo    MessageLevel = "info"
	LevelLog     MessageLevel = "log"
)

// ArgumentType names the JSON type an [ArgumentHint] expects.
type ArgumentType string

// Supported argument types.
const (
	ArgString ArgumentType = "string"
	ArgNumber ArgumentType = "number"
	ArgBool   ArgumentType = "bool"
	ArgAny    ArgumentType = "any"
)

// An ArgumentHint documents one positional argument of a [PluginCommand] so
// the host can validate a workspace/executeCommand call before it ever
// reaches the plugin process.
type ArgumentHint struct {
	Name     string       `json:"name"`
	Type     ArgumentType `json:"type"`
	Required bool         `json:"required,omitempty"`
}

// A PluginCommand is a command a plugin registers during initialization. Args
// is optional; when absent the host does not validate arguments before
// dispatching the command.
type PluginCommand struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Args        []ArgumentHint `json:"args,omitempty"`
}

// NewPluginCommand returns a PluginCommand with no description and no
// argument hints.
func NewPluginCommand(id, title string) PluginCommand {
	return PluginCommand{ID: id, Title: title, Description: "", Args: nil}
}

// WithDescription returns a copy of c with Description set.
func (c PluginCommand) WithDescription(description string) PluginCommand {
	c.Description = description

	return c
}

// WithArgs returns a copy of c with Args set.
func (c PluginCommand) WithArgs(args ...ArgumentHint) PluginCommand {
	c.Args = args

	return c
}

// A HostRequest is a single message sent from the host to a plugin.
type HostRequest struct {
	ID      uint64
	Payload HostRequestPayload
}

// MarshalJSON implements [json.Marshaler] for HostRequest.
func (r HostRequest) MarshalJSON() ([]byte, error) {
	payload, err := marshalPayload(r.Payload)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(struct {
		ID      uint64          `json:"id"`
		Payload json.RawMessage `json:"payload"`
	}{ID: r.ID, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal host request: %w", err)
	}

	return data, nil
}

// UnmarshalJSON implements [json.Unmarshaler] for HostRequest.
func (r *HostRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      uint64          `json:"id"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal host request: %w", err)
	}

	payload, err := unmarshalHostRequestPayload(raw.Payload)
	if err != nil {
		return err
	}

	r.ID = raw.ID
	r.Payload = payload

	return nil
}

// HostRequestPayload is the sum type of the possible payloads of a
// [HostRequest]: [InitializePayload], [ExecutePayload], or
// [ShutdownPayload].
type HostRequestPayload interface {
	hostRequestPayload()
}

// InitializePayload asks the plugin to initialize itself and register its
// commands. It is always the first request a plugin receives.
type InitializePayload struct {
	WorkspaceRoot *string `json:"workspace_root,omitempty"`
}

func (InitializePayload) hostRequestPayload() {}

// ExecutePayload asks the plugin to run a previously registered command.
type ExecutePayload struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments"`
}

func (ExecutePayload) hostRequestPayload() {}

// ShutdownPayload asks the plugin to stop accepting new work and exit.
type ShutdownPayload struct{}

func (ShutdownPayload) hostRequestPayload() {}

func marshalPayload(p HostRequestPayload) (json.RawMessage, error) {
	var (
		tag   string
		value any
	)

	switch v := p.(type) {
	case InitializePayload:
		tag, value = "initialize", v
	case ExecutePayload:
		tag, value = "execute", v
	case ShutdownPayload:
		tag, value = "shutdown", v
	default:
		return nil, fmt.Errorf("%w: %T", errUnknownPayloadType, p)
	}

	return taggedMarshal(tag, value)
}

func unmarshalHostRequestPayload(raw json.RawMessage) (HostRequestPayload, error) {
	tag, err := peekType(raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "initialize":
		var v InitializePayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal initialize payload: %w", err)
		}

		return v, nil
	case "execute":
		var v ExecutePayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execute payload: %w", err)
		}

		return v, nil
	case "shutdown":
		return ShutdownPayload{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
}

// A PluginMessage is a single message sent from a plugin to the host: either
// a [ResponseMessage] answering a request by ID, or an [EventMessage] sent
// unprompted.
type PluginMessage interface {
	pluginMessage()
}

// ResponseMessage answers the [HostRequest] with the same ID.
type ResponseMessage struct {
	ID     uint64
	Result PluginResponse
}

func (ResponseMessage) pluginMessage() {}

// EventMessage carries a [PluginEvent] that was not requested by the host.
type EventMessage struct {
	Event PluginEvent
}

func (EventMessage) pluginMessage() {}

// MarshalJSON implements [json.Marshaler] for ResponseMessage.
func (m ResponseMessage) MarshalJSON() ([]byte, error) {
	result, err := marshalPluginResponse(m.Result)
	if err != nil {
		return nil, err
	}

	data, err := taggedMarshal("response", struct {
		ID     uint64          `json:"id"`
		Result json.RawMessage `json:"result"`
	}{ID: m.ID, Result: result})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// MarshalJSON implements [json.Marshaler] for EventMessage.
func (m EventMessage) MarshalJSON() ([]byte, error) {
	event, err := marshalPluginEvent(m.Event)
	if err != nil {
		return nil, err
	}

	data, err := taggedMarshal("event", struct {
		Event json.RawMessage `json:"event"`
	}{Event: event})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// UnmarshalPluginMessage decodes one line of plugin output into a
// PluginMessage.
func UnmarshalPluginMessage(data []byte) (PluginMessage, error) {
	tag, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "response":
		var raw struct {
			ID     uint64          `json:"id"`
			Result json.RawMessage `json:"result"`
		}

		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response message: %w", err)
		}

		result, err := unmarshalPluginResponse(raw.Result)
		if err != nil {
			return nil, err
		}

		return ResponseMessage{ID: raw.ID, Result: result}, nil
	case "event":
		var raw struct {
			Event json.RawMessage `json:"event"`
		}

		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event message: %w", err)
		}

		event, err := unmarshalPluginEvent(raw.Event)
		if err != nil {
			return nil, err
		}

		return EventMessage{Event: event}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
}

// PluginResponse is the sum type of the results a plugin sends back for a
// request: [InitializedResponse], [CommandResultResponse],
// [CommandErrorResponse], or [AcknowledgeResponse].
type PluginResponse interface {
	pluginResponse()
}

// InitializedResponse answers an [InitializePayload] with the commands the
// plugin registered.
type InitializedResponse struct {
	Commands []PluginCommand `json:"commands"`
}

func (InitializedResponse) pluginResponse() {}

// CommandResultResponse answers an [ExecutePayload] with the command's
// return value, if any.
type CommandResultResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
}

func (CommandResultResponse) pluginResponse() {}

// CommandErrorResponse answers a request that the plugin could not satisfy.
type CommandErrorResponse struct {
	Message string `json:"message"`
}

func (CommandErrorResponse) pluginResponse() {}

// AcknowledgeResponse answers a [ShutdownPayload].
type AcknowledgeResponse struct{}

func (AcknowledgeResponse) pluginResponse() {}

func marshalPluginResponse(r PluginResponse) (json.RawMessage, error) {
	var (
		tag   string
		value any
	)

	switch v := r.(type) {
	case InitializedResponse:
		tag, value = "initialized", v
	case CommandResultResponse:
		tag, value = "command_result", v
	case CommandErrorResponse:
		tag, value = "command_error", v
	case AcknowledgeResponse:
		tag, value = "acknowledge", v
	default:
		return nil, fmt.Errorf("%w: %T", errUnknownPayloadType, r)
	}

	return taggedMarshal(tag, value)
}

func unmarshalPluginResponse(raw json.RawMessage) (PluginResponse, error) {
	tag, err := peekType(raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "initialized":
		var v InitializedResponse
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal initialized response: %w", err)
		}

		return v, nil
	case "command_result":
		var v CommandResultResponse
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal command result response: %w", err)
		}

		return v, nil
	case "command_error":
		var v CommandErrorResponse
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal command error response: %w", err)
		}

		return v, nil
	case "acknowledge":
		return AcknowledgeResponse{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
}

// PluginEvent is the sum type of events a plugin may emit unprompted:
// [ShowMessageEvent] or [LogEvent].
type PluginEvent interface {
	pluginEvent()
}

// ShowMessageEvent asks the host to surface message to the editor user.
type ShowMessageEvent struct {
	Level   MessageLevel `json:"level"`
	Message string       `json:"message"`
}

func (ShowMessageEvent) pluginEvent() {}

// LogEvent asks the host to record message in its own log, without
// necessarily surfacing it to the user.
type LogEvent struct {
	Level   MessageLevel `json:"level"`
	Message string       `json:"message"`
}

func (LogEvent) pluginEvent() {}

func marshalPluginEvent(e PluginEvent) (json.RawMessage, error) {
	var (
		tag   string
		value any
	)

	switch v := e.(type) {
	case ShowMessageEvent:
		tag, value = "show_message", v
	case LogEvent:
		tag, value = "log", v
	default:
		return nil, fmt.Errorf("%w: %T", errUnknownPayloadType, e)
	}

	return taggedMarshal(tag, value)
}

func unmarshalPluginEvent(raw json.RawMessage) (PluginEvent, error) {
	tag, err := peekType(raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "show_message":
		var v ShowMessageEvent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal show_message event: %w", err)
		}

		return v, nil
	case "log":
		var v LogEvent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log event: %w", err)
		}

		return v, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
}

// taggedMarshal marshals value and injects a "type" field set to tag into
// the resulting object.
func taggedMarshal(tag string, value any) (json.RawMessage, error) {
	fields, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", tag, err)
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(fields, &m); err != nil {
		return nil, fmt.Errorf("failed to flatten %s payload: %w", tag, err)
	}

	typeTag, err := json.Marshal(tag)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal type tag: %w", err)
	}

	if m == nil {
		m = make(map[string]json.RawMessage, 1)
	}

	m["type"] = typeTag

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", tag, err)
	}

	return data, nil
}

// peekType reads only the "type" discriminator field out of a JSON object.
func peekType(data json.RawMessage) (string, error) {
	var tagged struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &tagged); err != nil {
		return "", fmt.Errorf("failed to read type tag: %w", err)
	}

	return tagged.Type, nil
}
