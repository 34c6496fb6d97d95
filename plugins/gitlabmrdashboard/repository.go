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
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// project names the GitLab namespace/project pair a workspace's origin
// remote points at.
type project struct {
	Path string // e.g. "group/project" or "group/subgroup/project"
	Host string
}

var errUnparseableRemote = errors.New("unable to parse git remote")

// detectProject reads the origin remote of the git repository at
// workspaceRoot. A missing git repository or remote is not an error: it
// yields a nil project, and the plugin reports the commands that need one
// as unavailable instead of failing to start.
func detectProject(workspaceRoot string) (*project, error) {
	cmd := exec.Command("git", "-C", workspaceRoot, "config", "--get", "remote.origin.url") //nolint:gosec // workspaceRoot is the host-provided workspace path
	output, err := cmd.Output()
	if err != nil {
		return nil, nil //nolint:nilnil // no remote configured is an expected, non-error state
	}

	remote := strings.TrimSpace(string(output))
	if remote == "" {
		return nil, nil //nolint:nilnil // no remote configured is an expected, non-error state
	}

	return parseRemote(remote)
}

func parseRemote(remote string) (*project, error) {
	if strings.HasPrefix(remote, "git@") {
		parts := strings.SplitN(remote, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", errUnparseableRemote, remote)
		}

		host := strings.TrimPrefix(parts[0], "git@")
		path := strings.TrimSuffix(parts[1], ".git")

		return &project{Path: path, Host: "https://" + host}, nil
	}

	u, err := url.Parse(remote)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errUnparseableRemote, remote)
	}

	path := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if path == "" {
		return nil, fmt.Errorf("%w: %q", errUnparseableRemote, remote)
	}

	return &project{Path: path, Host: u.Scheme + "://" + u.Host}, nil
}
