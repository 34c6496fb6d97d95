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
	"context"
	"net/http"
	"time"

	"github.com/google/go-github/v67/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// pullRequestsPerSecond bounds how fast the plugin hits the GitHub API,
// independent of whatever rate limit headers a response comes back with.
const pullRequestsPerSecond = 5

// rateLimitedTransport throttles outgoing requests before they reach base,
// so the plugin does not need to inspect GitHub's rate-limit headers before
// making its first call.
type rateLimitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err //nolint:wrapcheck // context cancellation/deadline errors are returned as-is by net/http convention
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err //nolint:wrapcheck // RoundTrip implementations return transport errors unwrapped
	}

	return resp, nil
}

// newGitHubClient builds a github.Client backed by a retrying, rate-limited
// HTTP client, authenticated with token when one is available.
func newGitHubClient(token string) *github.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3 //nolint:mnd // matches the reference plugin's fixed retry budget
	retryClient.Logger = nil

	base := retryClient.StandardClient()
	base.Timeout = 10 * time.Second //nolint:mnd // matches the reference plugin's fixed request timeout
	base.Transport = &rateLimitedTransport{
		limiter: rate.NewLimiter(rate.Limit(pullRequestsPerSecond), pullRequestsPerSecond),
		base:    base.Transport,
	}

	if token == "" {
		return github.NewClient(base)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	return github.NewClient(authed)
}
