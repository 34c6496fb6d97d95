// Copyright 2025 Antti Kivi
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

// Package logging sets up the host's [log/slog] logging. The host's stdout is
// reserved for the LSP transport, so every handler here writes to stderr or
// to a file; nothing in this package ever touches os.Stdout.
//
// Before flags are parsed, a bootstrap logger is installed as the default
// logger. After flags are parsed, Init replaces it with the logger
// configured from the command line.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/helix-editor/plugin-host/internal/fspath"
	"github.com/helix-editor/plugin-host/internal/iostreams"
)

// Level extends [slog.Level] with a Trace step below Debug.
type Level int8 //nolint:recvcheck // needs different receiver types for Level/String

// Levels supported by the host, ordered the same way [slog.Level] is.
const (
	LevelTrace Level = Level(slog.LevelDebug) - 4
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// Level returns l as an [slog.Level].
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// String returns the human-readable name of l.
func (l Level) String() string {
	switch {
	case l == LevelTrace:
		return "TRACE"
	case l < LevelDebug:
		return fmt.Sprintf("TRACE%+d", l-LevelTrace)
	default:
		return slog.Level(l).String()
	}
}

// BootstrapWriter is the writer used by the bootstrap logger. The panic
// handler checks its concrete type so it can flush buffered bootstrap logs
// into the crash report.
var BootstrapWriter io.Writer //nolint:gochecknoglobals // needed by the panic handler

// InitBootstrap installs the bootstrap logger as the default [slog] logger.
// It is controlled by the HELIX_PLUGIN_HOST_DEBUG environment variable:
// "0"/"false" discards every bootstrap log, "1"/"true" prints them to
// stderr immediately, and anything else (including unset) buffers them to
// a file that is only written out if the program later panics.
func InitBootstrap() error {
	debugVar := strings.ToLower(os.Getenv("HELIX_PLUGIN_HOST_DEBUG"))

	if debugVar == "false" || debugVar == "0" {
		slog.SetDefault(slog.New(slog.DiscardHandler))

		return nil
	}

	if debugVar == "" || (debugVar != "true" && debugVar != "1") {
		path, err := fspath.New("~/.cache/helix-plugin-host/bootstrap.log").Abs()
		if err != nil {
			return fmt.Errorf("failed to resolve bootstrap log path: %w", err)
		}

		BootstrapWriter = NewBufferedFileWriter(path.String())

		slog.SetDefault(
			slog.New(
				slog.NewJSONHandler(BootstrapWriter, &slog.HandlerOptions{
					AddSource:   true,
					Level:       LevelTrace.Level(),
					ReplaceAttr: replaceAttrFunc,
				}),
			),
		)

		return nil
	}

	slog.SetDefault(
		slog.New(
			slog.NewTextHandler(iostreams.NewLockedWriter(os.Stderr), &slog.HandlerOptions{
				AddSource:   true,
				Level:       LevelTrace.Level(),
				ReplaceAttr: replaceAttrFunc,
			}),
		),
	)

	return nil
}

// Init installs the configured logger as the default [slog] logger once
// command-line flags have been parsed.
func Init(verbose bool) {
	level := LevelInfo
	if verbose {
		level = LevelDebug
	}

	h := slog.NewTextHandler(iostreams.NewLockedWriter(os.Stderr), &slog.HandlerOptions{
		Level:       level.Level(),
		ReplaceAttr: replaceAttrFunc,
	})

	slog.SetDefault(slog.New(h))
}

// Trace logs msg at [LevelTrace] on the default logger.
func Trace(msg string, args ...any) {
	//nolint:sloglint // logging function cannot have constant message
	slog.Log(context.Background(), LevelTrace.Level(), msg, args...)
}

// TraceContext logs msg at [LevelTrace] on the default logger.
func TraceContext(ctx context.Context, msg string, args ...any) {
	//nolint:sloglint // logging function cannot have constant message
	slog.Log(ctx, LevelTrace.Level(), msg, args...)
}

func replaceAttrFunc(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}

	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}

	return slog.String(slog.LevelKey, Level(level).String())
}
