package checker

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

// githubRepoPath matches /{owner}/{repo} and /{owner}/{repo}/... paths on
// github.com, used to route repo links to the authenticated existence probe
// instead of anonymous HTTP (spec §4.5: avoids anonymous rate-limit noise).
var githubRepoPath = regexp.MustCompile(`^/([^/]+)/([^/]+)(?:/.*)?$`)

// GitHubClient probes repository existence via the GitHub REST v3 API.
type GitHubClient struct {
	token      string
	httpClient *http.Client
}

// NewGitHubClient builds a client authenticated with token.
func NewGitHubClient(token string, timeout time.Duration) *GitHubClient {
	return &GitHubClient{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RepoPath reports whether host/path identify a GitHub repo path this
// client can probe, returning the matched owner/repo.
func RepoPath(host, path string) (owner, repo string, ok bool) {
	if host != "github.com" && host != "www.github.com" {
		return "", "", false
	}
	m := githubRepoPath.FindStringSubmatch(path)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// CheckRepo queries GET /repos/{owner}/{repo} and reports whether it
// exists.
func (c *GitHubClient) CheckRepo(ctx context.Context, owner, repo string) (Outcome, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s", owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return outcomeFromErr(Request{}, err), nil
	}
	defer func() { _ = resp.Body.Close() }()

	return Outcome{StatusCode: resp.StatusCode}, nil
}
