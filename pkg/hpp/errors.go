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

import "errors"

// Errors returned while decoding the protocol's tagged unions.
var (
	// ErrUnknownTag is returned when a message's "type" field does not match
	// any known variant.
	ErrUnknownTag = errors.New("hpp: unknown message type")

	errUnknownPayloadType = errors.New("hpp: unsupported payload type")
)
