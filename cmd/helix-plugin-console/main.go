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

// Command helix-plugin-console drives a single plugin over the Helix
// Plugin Protocol from an interactive REPL, without an editor attached. It
// is a development and debugging tool, not part of the host's own CLI
// surface.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/helix-editor/plugin-host/internal/fspath"
	"github.com/helix-editor/plugin-host/internal/manifest"
	"github.com/helix-editor/plugin-host/internal/panichandler"
	"github.com/helix-editor/plugin-host/internal/pluginhost"
	"github.com/helix-editor/plugin-host/internal/terminal"
)

func main() {
	defer panichandler.Handle()

	var (
		manifestPath string
		pluginName   string
		workspace    string
	)

	flags := pflag.NewFlagSet("helix-plugin-console", pflag.ExitOnError)
	flags.StringVar(&manifestPath, "manifest", "~/.config/helix/plugins.toml", "path to the plugin manifest")
	flags.StringVar(&pluginName, "plugin", "", "name of the plugin to drive, as it appears in the manifest")
	flags.StringVar(&workspace, "workspace", "", "workspace root reported to the plugin at initialize")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "helix-plugin-console: %v\n", err)
		os.Exit(2)
	}

	if pluginName == "" {
		fmt.Fprintln(os.Stderr, "helix-plugin-console: --plugin is required")
		os.Exit(2)
	}

	if err := run(manifestPath, pluginName, workspace); err != nil {
		fmt.Fprintf(os.Stderr, "helix-plugin-console: %v\n", err)
		os.Exit(1)
	}
}

func run(manifestPath, pluginName, workspace string) error {
	path, err := fspath.New(manifestPath).ExpandUser()
	if err != nil {
		return fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	man, err := manifest.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	var entry *manifest.Entry

	for i, candidate := range man.Plugins {
		if candidate.Name == pluginName {
			entry = &man.Plugins[i]

			break
		}
	}

	if entry == nil {
		return fmt.Errorf("%w: no plugin named %q in %s", errPluginNotFound, pluginName, path)
	}

	proc, err := pluginhost.Spawn(*entry, path.Dir(), workspace, nil)
	if err != nil {
		return fmt.Errorf("failed to spawn plugin: %w", err)
	}

	ctx := context.Background()
	defer func() { _ = proc.Shutdown(ctx) }()

	var root *string
	if workspace != "" {
		root = &workspace
	}

	resp, err := proc.SendRequest(ctx, hppInitializePayload(root))
	if err != nil {
		return fmt.Errorf("failed to initialize plugin: %w", err)
	}

	commands, ok := initializedCommands(resp)
	if !ok {
		return fmt.Errorf("%w: initialize returned %T", errUnexpectedResponse, resp)
	}

	term := terminal.New(ctx)
	defer func() { _ = term.Close() }()

	term.Init(false, false, true, terminal.ColorAuto)
	term.Printf("Connected to plugin %q. %d command(s) registered.\n", entry.Name, len(commands))
	term.Printf("Type \"list\", \"call <command> [json-args]\", or \"exit\".\n")

	return repl(ctx, term, proc, commands)
}

func repl(ctx context.Context, term *terminal.Terminal, proc *pluginhost.PluginProcess, commands []commandInfo) error {
	for {
		line, err := term.Ask(ctx, "> ")
		if err != nil {
			if errors.Is(err, terminal.ErrQuietPrompt) {
				return nil
			}

			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "exit" || line == "quit" {
			return nil
		}

		if err := dispatchLine(ctx, term, proc, commands, line); err != nil {
			term.PrintErrf("%v\n", err)
		}
	}
}

// dispatchLine parses one REPL line with a throwaway cobra.Command tree,
// the same pattern the teacher uses for its small single-purpose tool
// mains, so "list" and "call" gain flag parsing and usage text for free.
func dispatchLine(ctx context.Context, term *terminal.Terminal, proc *pluginhost.PluginProcess, commands []commandInfo, line string) error {
	root := &cobra.Command{Use: "console", SilenceUsage: true, SilenceErrors: true} //nolint:exhaustruct // REPL root, no persistent flags

	root.AddCommand(&cobra.Command{ //nolint:exhaustruct // args/RunE are all this subcommand needs
		Use: "list",
		RunE: func(*cobra.Command, []string) error {
			for _, c := range commands {
				term.Printf("  %s\t%s\n", c.ID, c.Title)
			}

			return nil
		},
	})

	root.AddCommand(&cobra.Command{ //nolint:exhaustruct // args/RunE are all this subcommand needs
		Use:  "call <command> [json-args]",
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return callCommand(ctx, term, proc, args[0], args[1:])
		},
	})

	root.SetArgs(strings.Fields(line))

	if err := root.Execute(); err != nil {
		return fmt.Errorf("failed to run command: %w", err)
	}

	return nil
}

func callCommand(ctx context.Context, term *terminal.Terminal, proc *pluginhost.PluginProcess, command string, rawArgs []string) error {
	arguments := make([]json.RawMessage, len(rawArgs))

	for i, a := range rawArgs {
		var probe any
		if err := json.Unmarshal([]byte(a), &probe); err != nil {
			arguments[i] = mustMarshalString(a)

			continue
		}

		arguments[i] = json.RawMessage(a)
	}

	resp, err := proc.SendRequest(ctx, hppExecutePayload(command, arguments))
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", command, err)
	}

	result, isResult, errMsg, isError := commandResponse(resp)

	switch {
	case isError:
		term.PrintErrf("%s returned an error: %s\n", command, errMsg)
	case isResult:
		term.Printf("%s\n", result)
	default:
		term.Printf("(no result)\n")
	}

	return nil
}

func mustMarshalString(s string) json.RawMessage {
	data, err := json.Marshal(s)
	if err != nil {
		return json.RawMessage(`""`)
	}

	return data
}

var (
	errPluginNotFound     = errors.New("plugin not found in manifest")
	errUnexpectedResponse = errors.New("unexpected response")
)
