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

package terminal

import "github.com/helix-editor/plugin-host/internal/iostreams"

// ColorMode controls whether [Terminal.Init] enables ANSI color output. It
// is the same type [iostreams.ColorMode] uses, aliased here so callers that
// only need a Terminal do not have to import iostreams directly.
type ColorMode = iostreams.ColorMode

// Possible values of [ColorMode].
const (
	ColorAuto   = iostreams.ColorAuto
	ColorAlways = iostreams.ColorAlways
	ColorNever  = iostreams.ColorNever
)
