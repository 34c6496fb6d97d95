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

// Command githubprdashboard lists open pull requests for the repository the
// current workspace's origin remote points at, through a single command,
// helix.github.list_prs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/go-github/v67/github"
	"github.com/joho/godotenv"

	"github.com/helix-editor/plugin-host/pkg/hpp"
	plugin "github.com/helix-editor/plugin-host/pkg/hpp/plugin"
)

const listPullRequestsCommand = "helix.github.list_prs"

var (
	errMissingRepository = errors.New("no GitHub repository detected for this workspace")
	errUnknownCommand    = errors.New("unknown command")
)

type githubPRPlugin struct {
	repo   *repository
	client *github.Client
}

func newGitHubPRPlugin() *githubPRPlugin {
	workspaceRoot := os.Getenv("HELIX_WORKSPACE_ROOT")
	if workspaceRoot == "" {
		if cwd, err := os.Getwd(); err == nil {
			workspaceRoot = cwd
		}
	}

	loadDotenv(workspaceRoot)

	repo, err := detectRepository(workspaceRoot)
	if err != nil {
		slog.Warn("failed to detect GitHub repository", "err", err)
	}

	return &githubPRPlugin{
		repo:   repo,
		client: newGitHubClient(os.Getenv("GITHUB_TOKEN")),
	}
}

// loadDotenv loads GITHUB_TOKEN from a .env file in the workspace root, if
// present, without overriding a token the environment already provides.
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

func (p *githubPRPlugin) Name() string { return "github-pr-dashboard" }

func (p *githubPRPlugin) Initialize(ctx *plugin.InitializeContext, registrar plugin.Registrar) error {
	if err := registrar.RegisterCommand(plugin.CommandSpec{
		ID:          listPullRequestsCommand,
		Title:       "List open pull requests",
		Description: "List open pull requests for this workspace's GitHub repository.",
		Args:        nil,
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", listPullRequestsCommand, err)
	}

	if p.repo == nil {
		ctx.Log(hpp.LevelWarning, "github-pr-dashboard: no git remote detected, list_prs will fail until one is configured.")
	}

	return nil
}

func (p *githubPRPlugin) Execute(_ *plugin.CommandContext, command string, _ []json.RawMessage) (any, error) {
	if command != listPullRequestsCommand {
		return nil, fmt.Errorf("%w: %q", errUnknownCommand, command)
	}

	if p.repo == nil {
		return nil, errMissingRepository
	}

	prs, _, err := p.client.PullRequests.List(context.Background(), p.repo.Owner, p.repo.Name, &github.PullRequestListOptions{
		State: "open",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s/%s: %w", p.repo.Owner, p.repo.Name, err)
	}

	result := make([]pullRequestSummary, 0, len(prs))
	for _, pr := range prs {
		result = append(result, summarizePullRequest(pr))
	}

	return result, nil
}

type pullRequestSummary struct {
	Number         int    `json:"number"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	State          string `json:"state"`
	Draft          bool   `json:"draft"`
	Author         string `json:"author"`
	MergeableState string `json:"mergeable_state"`
}

func summarizePullRequest(pr *github.PullRequest) pullRequestSummary {
	summary := pullRequestSummary{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		URL:            pr.GetHTMLURL(),
		State:          pr.GetState(),
		Draft:          pr.GetDraft(),
		Author:         pr.GetUser().GetLogin(),
		MergeableState: pr.GetMergeableState(),
	}

	return summary
}

func main() {
	if err := plugin.Serve(newGitHubPRPlugin()); err != nil {
		slog.Error("github-pr-dashboard plugin exited with an error", "err", err)
		os.Exit(1)
	}
}
