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
	"fmt"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const defaultHost = "https://gitlab.com"

// newGitLabClient builds a gitlab.Client for host, authenticated with token
// when one is available. A self-hosted host gets its base URL rewritten to
// the GitLab REST API root; gitlab.com does not need that.
func newGitLabClient(token, host string) (*gitlab.Client, error) {
	if host == "" {
		host = defaultHost
	}

	var options []gitlab.ClientOptionFunc

	if host != defaultHost {
		options = append(options, gitlab.WithBaseURL(strings.TrimSuffix(host, "/")+"/api/v4"))
	}

	client, err := gitlab.NewClient(token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return client, nil
}
