// Where: cmd/tradebuild/cli.go
// What: CLI dependency wiring helpers.
// Why: Centralize construction for testability.
package main

import (
	"io"
	"os"

	"github.com/quantfarm/tradebuild/internal/app"
	"github.com/quantfarm/tradebuild/internal/image"
	"github.com/quantfarm/tradebuild/internal/interaction"
	"github.com/quantfarm/tradebuild/internal/publish"
)

var (
	getwd           = os.Getwd
	newDockerClient = image.NewDockerClient
)

// buildDependencies constructs the runtime dependencies required by the
// CLI. The Docker client is optional: without a reachable daemon the build
// command still works through the docker CLI, only verification and image
// pruning are disabled.
func buildDependencies() (app.Dependencies, io.Closer) {
	projectDir, err := getwd()
	if err != nil {
		projectDir = "."
	}

	deps := app.Dependencies{
		ProjectDir: projectDir,
		Out:        os.Stdout,
		Invoker:    image.NewCLIInvoker(),
		Publisher:  publish.NewClientFactory(),
	}
	if interaction.IsTerminal(os.Stdin) {
		deps.Prompter = interaction.HuhPrompter{}
	}

	client, err := newDockerClient()
	if err != nil {
		return deps, nil
	}
	deps.Docker = client

	return deps, asCloser(client)
}

// asCloser attempts to cast the Docker client to an io.Closer.
// Returns nil if the client does not implement the Closer interface.
func asCloser(client image.DockerClient) io.Closer {
	if closer, ok := client.(io.Closer); ok {
		return closer
	}
	return nil
}
