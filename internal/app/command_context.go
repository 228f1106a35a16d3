// Where: internal/app/command_context.go
// What: Shared helpers for CLI commands.
// Why: Reduce duplicated default resolution across commands.
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantfarm/tradebuild/internal/config"
	"github.com/quantfarm/tradebuild/internal/meta"
)

func exitWithError(out io.Writer, err error) int {
	fmt.Fprintf(out, "✗ %v\n", err)
	return 1
}

// resolveContextDir returns the build context directory: the explicit flag
// value when set, otherwise <project dir>/docker.
func resolveContextDir(flag string, deps Dependencies) (string, error) {
	if trimmed := strings.TrimSpace(flag); trimmed != "" {
		return trimmed, nil
	}

	projectDir := deps.ProjectDir
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		projectDir = cwd
	}
	return filepath.Join(projectDir, meta.ContextDir), nil
}

// loadGlobalConfigOrDefault loads the global config, falling back to
// defaults when the file is unreadable.
func loadGlobalConfigOrDefault() config.GlobalConfig {
	path, err := config.GlobalConfigPath()
	if err != nil {
		return config.DefaultGlobalConfig()
	}
	cfg, err := config.LoadGlobalConfig(path)
	if err != nil {
		return config.DefaultGlobalConfig()
	}
	return cfg
}

// resolveImageName returns the flag value when set, then the configured
// default, then the built-in default.
func resolveImageName(flag string, cfg config.GlobalConfig) string {
	if trimmed := strings.TrimSpace(flag); trimmed != "" {
		return trimmed
	}
	if cfg.Defaults.Name != "" {
		return cfg.Defaults.Name
	}
	return meta.DefaultImageName
}

// firstNonEmpty returns the first non-empty trimmed value.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
