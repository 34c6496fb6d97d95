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

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// A task is one runnable unit the plugin discovered in the workspace.
type task struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Provider string `json:"provider"`
	Command  string `json:"command,omitempty"`
}

var titleCaser = cases.Title(language.English) //nolint:gochecknoglobals // stateless, cheap to share

func discoverTasks(workspaceRoot string) ([]task, error) {
	var tasks []task

	fromPackageJSON, err := extractPackageScripts(workspaceRoot)
	if err != nil {
		return nil, err
	}

	tasks = append(tasks, fromPackageJSON...)

	fromJust, err := extractLineTasks(workspaceRoot, "justfile", "just")
	if err != nil {
		return nil, err
	}

	tasks = append(tasks, fromJust...)

	fromMake, err := extractLineTasks(workspaceRoot, "Makefile", "make")
	if err != nil {
		return nil, err
	}

	tasks = append(tasks, fromMake...)

	fromGoMod, err := extractGoModTasks(workspaceRoot)
	if err != nil {
		return nil, err
	}

	tasks = append(tasks, fromGoMod...)

	fromYAML, err := extractYAMLTasks(workspaceRoot)
	if err != nil {
		return nil, err
	}

	tasks = append(tasks, fromYAML...)

	return tasks, nil
}

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
}

func extractPackageScripts(workspaceRoot string) ([]task, error) {
	path := filepath.Join(workspaceRoot, "package.json")

	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}

	var parsed packageJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	tasks := make([]task, 0, len(parsed.Scripts))
	for name, command := range parsed.Scripts {
		tasks = append(tasks, newTask(name, "npm", command))
	}

	return tasks, nil
}

// extractLineTasks handles both justfile and Makefile recipes, which share
// the same "name: dependencies" line shape well enough for a lightweight
// discovery heuristic; neither format's task runner is meant to be
// reimplemented here.
func extractLineTasks(workspaceRoot, filename, provider string) ([]task, error) {
	path := filepath.Join(workspaceRoot, filename)

	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}

	var tasks []task

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ".") {
			continue
		}

		name, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		tasks = append(tasks, newTask(strings.TrimSpace(name), provider, ""))
	}

	return tasks, nil
}

// extractGoModTasks parses go.mod with x/mod/modfile to surface "go test"
// and "go vet" as discovered tasks scoped to the module it names.
func extractGoModTasks(workspaceRoot string) ([]task, error) {
	path := filepath.Join(workspaceRoot, "go.mod")

	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}

	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	modulePath := "."
	if f.Module != nil {
		modulePath = f.Module.Mod.Path
	}

	return []task{
		newTask("test", "go", fmt.Sprintf("go test ./... # %s", modulePath)),
		newTask("vet", "go", fmt.Sprintf("go vet ./... # %s", modulePath)),
	}, nil
}

// taskFile is the shape of an optional .tasks.yaml a workspace can provide
// for tasks that do not fit any of the conventions above.
type taskFile struct {
	Tasks []struct {
		Name    string `yaml:"name"`
		Command string `yaml:"command"`
	} `yaml:"tasks"`
}

func extractYAMLTasks(workspaceRoot string) ([]task, error) {
	path := filepath.Join(workspaceRoot, ".tasks.yaml")

	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}

	var parsed taskFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	tasks := make([]task, 0, len(parsed.Tasks))
	for _, t := range parsed.Tasks {
		tasks = append(tasks, newTask(t.Name, "yaml", t.Command))
	}

	return tasks, nil
}

func newTask(name, provider, command string) task {
	return task{Name: name, Title: titleCaser.String(strings.ReplaceAll(name, "-", " ")), Provider: provider, Command: command}
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is joined from a configured workspace root, not user input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}
