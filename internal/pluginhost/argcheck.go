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

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/helix-editor/plugin-host/pkg/hpp"
)

// ErrInvalidArguments is wrapped with the offending argument's name
// whenever ValidateArguments rejects a workspace/executeCommand
// call before it reaches the plugin. Exported so internal/lspadapter can map
// it to the JSON-RPC InvalidParams code with errors.Is.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ValidateArguments checks arguments against the [hpp.ArgumentHint]s a
// plugin declared for a command, before the call is ever forwarded to the
// plugin process. Editors such as Helix decode JSON-RPC params into loosely
// typed values (arrays of `any`), so each argument is re-decoded through
// mapstructure to confirm it actually has the declared shape rather than
// trusting the wire JSON's type tags.
//
// A command with no hints is not validated; the plugin is trusted to
// validate its own arguments in that case.
func ValidateArguments(hints []hpp.ArgumentHint, arguments []json.RawMessage) error {
	if len(hints) == 0 {
		return nil
	}

	for i, hint := range hints {
		if i >= len(arguments) {
			if hint.Required {
				return fmt.Errorf("%w: missing required argument %q", ErrInvalidArguments, hint.Name)
			}

			continue
		}

		if err := validateArgument(hint, arguments[i]); err != nil {
			return fmt.Errorf("%w: argument %q: %w", ErrInvalidArguments, hint.Name, err)
		}
	}

	return nil
}

func validateArgument(hint hpp.ArgumentHint, raw json.RawMessage) error {
	if hint.Type == hpp.ArgAny {
		return nil
	}

	var value any

	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("failed to parse argument: %w", err)
	}

	switch hint.Type {
	case hpp.ArgString:
		var out string

		return decodeStrict(value, &out)
	case hpp.ArgNumber:
		var out float64

		return decodeStrict(value, &out)
	case hpp.ArgBool:
		var out bool

		return decodeStrict(value, &out)
	case hpp.ArgAny:
		return nil
	default:
		return fmt.Errorf("%w: unknown argument type %q", ErrInvalidArguments, hint.Type)
	}
}

// decodeStrict decodes value into target without the weak-typing coercions
// mapstructure normally applies (e.g. "1" satisfying a number), so a hint
// mismatch is reported instead of silently accepted.
func decodeStrict(value, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: false,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}

	if err := decoder.Decode(value); err != nil {
		return fmt.Errorf("wrong type: %w", err)
	}

	return nil
}
