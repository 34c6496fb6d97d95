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

// Package panichandler defines the panic handler functions for the plugin
// host. They must be deferred at the beginning of each goroutine: the main
// goroutine, the signal-handling goroutine, and every per-plugin stdout
// reader and stderr logger goroutine. The functions print a crash report and
// exit rather than let a panic in one plugin's I/O goroutine silently take
// down the host without diagnostics.
package panichandler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/helix-editor/plugin-host/internal/logging"
	"github.com/helix-editor/plugin-host/internal/terminal"
	"github.com/helix-editor/plugin-host/internal/version"
)

const (
	header = "!!! HELIX-PLUGIN-HOST CRASHED !%s"
	//nolint:lll
	panicInfo = `The plugin host has encountered an unexpected error. This is most likely a bug. Please include the version and stack trace below, and any plugin manifest that reproduces it, in a bug report.`
	footer = `
Please open an issue at:

	https://github.com/helix-editor/helix/issues

Thank you for helping Helix!
`
)

// panicMu ensures that only the first goroutine to panic reports and exits.
var panicMu sync.Mutex //nolint:gochecknoglobals // used by multiple goroutines

// cancel cancels the program's root context so in-flight plugin processes are
// told to stop before the process exits.
var cancel context.CancelFunc //nolint:gochecknoglobals // set once at startup

var cancelOnce sync.Once //nolint:gochecknoglobals // guards cancel

// Handle recovers a panic in the calling goroutine and prints a crash report.
// It must be deferred directly in the function that may panic.
func Handle() {
	panicMu.Lock()
	defer panicMu.Unlock()

	//revive:disable-next-line:defer This is a deferred function.
	r := recover()

	handlePanic(r, nil)
}

// WithStackTrace returns a deferrable function like Handle that additionally
// captures the stack leading up to the goroutine it is deferred in, so a
// panic in a background goroutine (a plugin's stdout reader, for instance)
// still shows where that goroutine was spawned from.
func WithStackTrace() func() {
	trace := debug.Stack()

	return func() {
		panicMu.Lock()
		defer panicMu.Unlock()

		//revive:disable-next-line:defer This is a deferred function.
		r := recover()

		handlePanic(r, trace)
	}
}

// SetCancel sets the cancel function for the program's root context. It may
// only be set once; later calls are ignored.
func SetCancel(c context.CancelFunc) {
	cancelOnce.Do(func() {
		cancel = c
	})
}

func handlePanic(r any, spawnedFrom []byte) {
	if r == nil {
		return
	}

	if cancel != nil {
		cancel()
	}

	width := terminal.Width()

	var buf bytes.Buffer

	buf.WriteByte('\n')
	buf.WriteString(fmt.Sprintf(header, strings.Repeat("!", max(width-len(header)+1, 0))))
	buf.WriteString("\n\n")
	buf.WriteString(wrap(panicInfo, width))
	buf.WriteByte('\n')
	buf.WriteString(fmt.Sprintf("Version: %s\n", version.Version()))
	buf.WriteString(fmt.Sprintf("Panic: %v\n\n", r))
	buf.WriteString("Stack trace:\n\n")
	buf.Write(debug.Stack())

	if spawnedFrom != nil {
		buf.WriteString("\nGoroutine spawned from:\n\n")
		buf.Write(spawnedFrom)
	}

	if w, ok := logging.BootstrapWriter.(*logging.BufferedFileWriter); ok {
		if err := w.Flush(); err != nil {
			buf.WriteString(fmt.Sprintf("\nFailed to write the bootstrap log to file: %v\n\n", err))
			buf.WriteString("Bootstrap log:\n")
			buf.Write(w.Bytes())
		} else {
			buf.WriteString(fmt.Sprintf("\nBootstrap log written to %s\n", w.File()))
		}
	}

	buf.WriteString("\n" + footer)

	if _, err := os.Stderr.Write(buf.Bytes()); err != nil {
		buf.WriteString(fmt.Sprintf("FAILED TO WRITE CRASH REPORT TO STDERR: %v\n", err))
	}

	//revive:disable-next-line:deep-exit Panic handler has to exit with error.
	os.Exit(1)
}

// wrap performs a simple greedy word wrap of s at width columns. width <= 0
// disables wrapping.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}

	var b strings.Builder

	lineLen := 0

	for i, word := range words {
		if i > 0 {
			if lineLen+1+len(word) > width {
				b.WriteByte('\n')

				lineLen = 0
			} else {
				b.WriteByte(' ')

				lineLen++
			}
		}

		b.WriteString(word)

		lineLen += len(word)
	}

	return b.String()
}
