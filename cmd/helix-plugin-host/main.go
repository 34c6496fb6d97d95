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

// Command helix-plugin-host is the LSP-speaking daemon Helix launches for a
// workspace. It reads a plugin manifest, spawns every plugin it describes,
// and forwards workspace/executeCommand calls to whichever plugin
// registered the command.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/helix-editor/plugin-host/internal/fspath"
	"github.com/helix-editor/plugin-host/internal/logging"
	"github.com/helix-editor/plugin-host/internal/lspadapter"
	"github.com/helix-editor/plugin-host/internal/panichandler"
	"github.com/helix-editor/plugin-host/internal/pluginhost"
	"github.com/helix-editor/plugin-host/internal/version"
)

func main() {
	defer panichandler.Handle()

	if err := logging.InitBootstrap(); err != nil {
		fmt.Fprintf(os.Stderr, "helix-plugin-host: %v\n", err)
		os.Exit(1)
	}

	var (
		manifestPath string
		verbose      bool
		showVersion  bool
	)

	flags := pflag.NewFlagSet("helix-plugin-host", pflag.ExitOnError)
	flags.StringVar(&manifestPath, "manifest", "~/.config/helix/plugins.toml", "path to the plugin manifest")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flags.BoolVar(&showVersion, "version", false, "print the version and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "helix-plugin-host: %v\n", err)
		os.Exit(2)
	}

	if showVersion {
		fmt.Fprintln(os.Stdout, version.Version())

		return
	}

	logging.Init(verbose)
	commonlog.Configure(boolToVerbosity(verbose), nil)

	path, err := fspath.New(manifestPath).ExpandUser()
	if err != nil {
		slog.Error("failed to resolve manifest path", "path", manifestPath, "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	panichandler.SetCancel(cancel)

	manager := pluginhost.NewManager(path, nil)
	adapter := lspadapter.New(manager)
	manager.SetEditor(adapter)

	go func() {
		defer panichandler.WithStackTrace()()

		<-ctx.Done()
		slog.Info("received shutdown signal, stopping plugins")

		if err := manager.ShutdownAll(context.Background()); err != nil {
			slog.Warn("error shutting down plugins after signal", "err", err)
		}
	}()

	if err := adapter.Run(); err != nil {
		slog.Error("lsp server exited with an error", "err", err)
		os.Exit(1)
	}
}

// boolToVerbosity maps the host's single --verbose flag to commonlog's
// integer verbosity scale, where higher means more output.
func boolToVerbosity(verbose bool) int {
	if verbose {
		return 2
	}

	return 1
}
