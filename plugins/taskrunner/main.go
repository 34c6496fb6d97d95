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

// Command taskrunner discovers runnable tasks in a workspace (npm scripts,
// justfile/Makefile recipes, go.mod targets, and an optional .tasks.yaml)
// and lists them through helix.task.list. helix.task.run runs npm, yarn,
// pnpm, just and make tasks; go.mod and .tasks.yaml tasks are listed but
// cannot be run.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/helix-editor/plugin-host/pkg/hpp"
	plugin "github.com/helix-editor/plugin-host/pkg/hpp/plugin"
)

const (
	listCommand = "helix.task.list"
	runCommand  = "helix.task.run"
)

var (
	errMissingArguments = errors.New("expected arguments {provider, name}")
	errMissingField     = errors.New("missing field")
	errUnsupportedTask  = errors.New("task provider is not supported")
	errUnknownCommand   = errors.New("unknown command")
)

type taskRunnerPlugin struct {
	workspaceRoot string
}

func newTaskRunnerPlugin() *taskRunnerPlugin {
	root := os.Getenv("HELIX_WORKSPACE_ROOT")
	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		}
	}

	return &taskRunnerPlugin{workspaceRoot: root}
}

func (p *taskRunnerPlugin) Name() string { return "task-runner" }

func (p *taskRunnerPlugin) Initialize(ctx *plugin.InitializeContext, registrar plugin.Registrar) error {
	if err := registrar.RegisterCommand(plugin.CommandSpec{
		ID:          listCommand,
		Title:       "List project tasks",
		Description: "Enumerate runnable tasks discovered in the current workspace.",
		Args:        nil,
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", listCommand, err)
	}

	if err := registrar.RegisterCommand(plugin.CommandSpec{
		ID:          runCommand,
		Title:       "Run project task",
		Description: "Execute a task by provider and name.",
		Args: []plugin.ArgumentHint{
			{Name: "task", Type: plugin.ArgAny, Required: true},
		},
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", runCommand, err)
	}

	if p.workspaceRoot == "" {
		ctx.Log(hpp.LevelWarning, "Task runner could not determine the workspace root.")
	}

	return nil
}

func (p *taskRunnerPlugin) Execute(ctx *plugin.CommandContext, command string, arguments []json.RawMessage) (any, error) {
	switch command {
	case listCommand:
		return discoverTasks(p.workspaceRoot)
	case runCommand:
		return p.runFromArguments(ctx, arguments)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownCommand, command)
	}
}

type runArgs struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

func (p *taskRunnerPlugin) runFromArguments(ctx *plugin.CommandContext, arguments []json.RawMessage) (any, error) {
	if len(arguments) == 0 {
		return nil, errMissingArguments
	}

	var args runArgs
	if err := json.Unmarshal(arguments[0], &args); err != nil {
		return nil, fmt.Errorf("failed to parse task arguments: %w", err)
	}

	if args.Provider == "" {
		return nil, fmt.Errorf("%w: provider", errMissingField)
	}

	if args.Name == "" {
		return nil, fmt.Errorf("%w: name", errMissingField)
	}

	stdout, err := p.runTask(args.Provider, args.Name)
	if err != nil {
		ctx.ShowMessage(hpp.LevelError, fmt.Sprintf("task `%s:%s` failed: %v", args.Provider, args.Name, err))

		return nil, err
	}

	ctx.ShowMessage(hpp.LevelInfo, fmt.Sprintf("task `%s:%s` completed", args.Provider, args.Name))

	return map[string]string{"stdout": stdout}, nil
}

func (p *taskRunnerPlugin) runTask(provider, name string) (string, error) {
	switch provider {
	case "npm", "yarn", "pnpm":
		return p.runPackageScript(provider, name)
	case "just":
		return p.execProcess("just", name)
	case "make":
		return p.execProcess("make", name)
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedTask, provider)
	}
}

func (p *taskRunnerPlugin) runPackageScript(provider, script string) (string, error) {
	switch provider {
	case "npm":
		return p.execProcess("npm", "run", script)
	case "yarn":
		return p.execProcess("yarn", script)
	case "pnpm":
		return p.execProcess("pnpm", "run", script)
	default:
		return p.execProcess(provider, script)
	}
}

func (p *taskRunnerPlugin) execProcess(binary string, args ...string) (string, error) {
	cmd := exec.Command(binary, args...) //nolint:gosec // binary/args come from a registered task definition, not raw user input
	cmd.Dir = p.workspaceRoot

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("task failed: %s", exitErr.Stderr)
		}

		return "", fmt.Errorf("failed to spawn %q: %w", binary, err)
	}

	return string(output), nil
}

func main() {
	if err := plugin.Serve(newTaskRunnerPlugin()); err != nil {
		slog.Error("task-runner plugin exited with an error", "err", err)
		os.Exit(1)
	}
}
