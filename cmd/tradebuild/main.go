// Where: cmd/tradebuild/main.go
// What: CLI entrypoint.
// Why: Execute tradebuild commands with configured dependencies.
package main

import (
	"os"

	"github.com/quantfarm/tradebuild/internal/app"
)

func main() {
	deps, closer := buildDependencies()

	exitCode := app.Run(os.Args[1:], deps)
	if closer != nil {
		closer.Close()
	}
	os.Exit(exitCode)
}
