// Where: internal/app/config_cmd.go
// What: Config command handlers.
package app

import (
	"io"
	"strings"

	"github.com/quantfarm/tradebuild/internal/config"
	"github.com/quantfarm/tradebuild/internal/ui"
)

func runConfigShow(_ CLI, _ Dependencies, out io.Writer) int {
	console := ui.New(out)

	path, err := config.GlobalConfigPath()
	if err != nil {
		return exitWithError(out, err)
	}
	cfg := loadGlobalConfigOrDefault()

	console.Header("⚙️", "Global configuration:")
	console.Item("Path", path)
	console.Item("Image name", cfg.Defaults.Name)
	console.Item("Account", cfg.Defaults.Account)
	if cfg.Defaults.LastTag != "" {
		console.Item("Last tag", cfg.Defaults.LastTag)
	}
	if cfg.Defaults.ManifestBucket != "" {
		console.Item("Manifest bucket", cfg.Defaults.ManifestBucket)
	}
	if cfg.Defaults.HistoryTable != "" {
		console.Item("History table", cfg.Defaults.HistoryTable)
	}
	if cfg.Defaults.S3Endpoint != "" {
		console.Item("S3 endpoint", cfg.Defaults.S3Endpoint)
	}
	return 0
}

func runConfigSet(cli CLI, _ Dependencies, out io.Writer) int {
	path, err := config.GlobalConfigPath()
	if err != nil {
		return exitWithError(out, err)
	}
	cfg := loadGlobalConfigOrDefault()

	set := cli.Config.Set
	if value := strings.TrimSpace(set.Name); value != "" {
		cfg.Defaults.Name = value
	}
	if value := strings.TrimSpace(set.Account); value != "" {
		cfg.Defaults.Account = value
	}
	if value := strings.TrimSpace(set.ManifestBucket); value != "" {
		cfg.Defaults.ManifestBucket = value
	}
	if value := strings.TrimSpace(set.HistoryTable); value != "" {
		cfg.Defaults.HistoryTable = value
	}
	if value := strings.TrimSpace(set.S3Endpoint); value != "" {
		cfg.Defaults.S3Endpoint = value
	}

	if err := config.SaveGlobalConfig(path, cfg); err != nil {
		return exitWithError(out, err)
	}

	ui.New(out).Success("configuration updated")
	return 0
}
