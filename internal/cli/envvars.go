package cli

import (
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from PREVIEWCTL_* env vars.
type baseEnv struct {
	// LogLevel is the logging level from PREVIEWCTL_LOG_LEVEL.
	LogLevel string `env:"PREVIEWCTL_LOG_LEVEL"`
	// EnvFiles lists .env files from PREVIEWCTL_ENV_FILES (comma-separated).
	EnvFiles []string `env:"PREVIEWCTL_ENV_FILES" envSeparator:","`
}

// setupEnv captures inputs for the setup command.
type setupEnv struct {
	// PRNumber is the pull request number from PREVIEWCTL_PR_NUMBER.
	PRNumber int `env:"PREVIEWCTL_PR_NUMBER"`
	// ChangedFiles are changed paths from PREVIEWCTL_CHANGED_FILES (comma-separated).
	ChangedFiles []string `env:"PREVIEWCTL_CHANGED_FILES" envSeparator:","`
	// ConfigPath is the manifest path from PREVIEWCTL_CONFIG_PATH.
	ConfigPath string `env:"PREVIEWCTL_CONFIG_PATH"`
	// AccessibleToInstance is the viewer instance from PREVIEWCTL_ACCESSIBLE_TO_INSTANCE.
	AccessibleToInstance string `env:"PREVIEWCTL_ACCESSIBLE_TO_INSTANCE"`
	// MessagePath is the PR message output from PREVIEWCTL_MESSAGE_PATH.
	MessagePath string `env:"PREVIEWCTL_MESSAGE_PATH"`
}

// teardownEnv captures inputs for the teardown command.
type teardownEnv struct {
	// PRNumber is the pull request number from PREVIEWCTL_PR_NUMBER.
	PRNumber int `env:"PREVIEWCTL_PR_NUMBER"`
}

// commentEnv holds inputs for posting the PR comment.
type commentEnv struct {
	// Repo is the repository slug from GITHUB_REPOSITORY.
	Repo string `env:"GITHUB_REPOSITORY"`
}

// parseEnv fills target from env vars via caarlos0/env.
func parseEnv(target interface{}) error {
	return envparse.Parse(target)
}

// envPresent reports whether a non-empty env var exists.
func envPresent(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}
