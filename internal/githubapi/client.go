// Package githubapi posts pull request comments using the GitHub CLI.
package githubapi

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// runner executes gh with the given stdin and arguments.
type runner func(ctx context.Context, env []string, stdin string, args ...string) error

// Client posts comments to pull requests of a single repository through gh.
type Client struct {
	logger *slog.Logger
	token  string
	repo   string
	run    runner
}

// NewClient validates the owner/repo slug and token and returns a Client.
func NewClient(logger *slog.Logger, token, repo string) (*Client, error) {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return nil, fmt.Errorf("repository is empty")
	}
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return nil, fmt.Errorf("invalid repository slug %q, expected owner/repo", repo)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("GitHub token is empty")
	}
	return &Client{
		logger: logger,
		token:  token,
		repo:   repo,
		run:    runGH,
	}, nil
}

// LookupToken returns the first non-empty token from GH_TOKEN or GITHUB_TOKEN.
func LookupToken(getenv func(string) string) (string, error) {
	for _, key := range []string{"GH_TOKEN", "GITHUB_TOKEN"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("GitHub token is required; set GH_TOKEN or GITHUB_TOKEN")
}

// CommentPR posts body as a new comment on the pull request.
func (c *Client) CommentPR(ctx context.Context, number int, body string) error {
	if number <= 0 {
		return fmt.Errorf("pr number must be positive")
	}
	args := []string{
		"pr", "comment", strconv.Itoa(number),
		"--repo", c.repo,
		"--body-file", "-",
	}
	if c.logger != nil {
		c.logger.Info("posting PR comment via gh", "repo", c.repo, "pr", number)
	}

	env := append(os.Environ(), "GITHUB_TOKEN="+c.token, "GH_TOKEN="+c.token)
	if err := c.run(ctx, env, body, args...); err != nil {
		return fmt.Errorf("gh pr comment for PR %d failed: %w", number, err)
	}
	return nil
}

func runGH(ctx context.Context, env []string, stdin string, args ...string) error {
	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.Env = env
	return cmd.Run()
}
