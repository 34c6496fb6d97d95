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

// Command gitlabmrdashboard lists open merge requests for the project the
// current workspace's origin remote points at, through a single command,
// helix.gitlab.list_mrs. It mirrors githubprdashboard's shape for the
// GitLab side of a team's remotes.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/helix-editor/plugin-host/pkg/hpp"
	plugin "github.com/helix-editor/plugin-host/pkg/hpp/plugin"
)

const listMergeRequestsCommand = "helix.gitlab.list_mrs"

var (
	errMissingProject = errors.New("no GitLab project detected for this workspace")
	errUnknownCommand = errors.New("unknown command")
)

type gitlabMRPlugin struct {
	project *project
	client  *gitlab.Client
}

func newGitLabMRPlugin() *gitlabMRPlugin {
	workspaceRoot := os.Getenv("HELIX_WORKSPACE_ROOT")
	if workspaceRoot == "" {
		if cwd, err := os.Getwd(); err == nil {
			workspaceRoot = cwd
		}
	}

	loadDotenv(workspaceRoot)

	proj, err := detectProject(workspaceRoot)
	if err != nil {
		slog.Warn("failed to detect GitLab project", "err", err)
	}

	host := defaultHost
	if proj != nil && proj.Host != "" {
		host = proj.Host
	}

	client, err := newGitLabClient(resolveToken(), host)
	if err != nil {
		slog.Error("failed to create GitLab client", "err", err)
	}

	return &gitlabMRPlugin{project: proj, client: client}
}

// resolveToken mirrors the env var precedence other providers in this
// module's pack use: a project-specific override first, then the common
// GITLAB_TOKEN.
func resolveToken() string {
	if token := os.Getenv("HELIX_GITLAB_TOKEN"); token != "" {
		return token
	}

	return os.Getenv("GITLAB_TOKEN")
}

func loadDotenv(workspaceRoot string) {
	if workspaceRoot == "" {
		return
	}

	path := filepath.Join(workspaceRoot, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}

	if err := godotenv.Load(path); err != nil {
		slog.Warn("failed to load .env", "path", path, "err", err)
	}
}

func (p *gitlabMRPlugin) Name() string { return "gitlab-mr-dashboard" }

func (p *gitlabMRPlugin) Initialize(ctx *plugin.InitializeContext, registrar plugin.Registrar) error {
	if err := registrar.RegisterCommand(plugin.CommandSpec{
		ID:          listMergeRequestsCommand,
		Title:       "List open merge requests",
		Description: "List open merge requests for this workspace's GitLab project.",
		Args:        nil,
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", listMergeRequestsCommand, err)
	}

	if p.project == nil {
		ctx.Log(hpp.LevelWarning, "gitlab-mr-dashboard: no git remote detected, list_mrs will fail until one is configured.")
	}

	return nil
}

func (p *gitlabMRPlugin) Execute(_ *plugin.CommandContext, command string, _ []json.RawMessage) (any, error) {
	if command != listMergeRequestsCommand {
		return nil, fmt.Errorf("%w: %q", errUnknownCommand, command)
	}

	if p.project == nil {
		return nil, errMissingProject
	}

	state := "opened"

	mrs, _, err := p.client.MergeRequests.ListProjectMergeRequests(p.project.Path, &gitlab.ListProjectMergeRequestsOptions{
		State: &state,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list merge requests for %s: %w", p.project.Path, err)
	}

	result := make([]mergeRequestSummary, 0, len(mrs))
	for _, mr := range mrs {
		result = append(result, summarizeMergeRequest(mr))
	}

	return result, nil
}

type mergeRequestSummary struct {
	IID         int64  `json:"iid"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	State       string `json:"state"`
	Draft       bool   `json:"draft"`
	Author      string `json:"author"`
	MergeStatus string `json:"merge_status"`
}

func summarizeMergeRequest(mr *gitlab.MergeRequest) mergeRequestSummary {
	summary := mergeRequestSummary{
		IID:         mr.IID,
		Title:       mr.Title,
		URL:         mr.WebURL,
		State:       mr.State,
		Draft:       mr.Draft,
		MergeStatus: mr.MergeStatus,
	}

	if mr.Author != nil {
		summary.Author = mr.Author.Username
	}

	return summary
}

func main() {
	if err := plugin.Serve(newGitLabMRPlugin()); err != nil {
		slog.Error("gitlab-mr-dashboard plugin exited with an error", "err", err)
		os.Exit(1)
	}
}
