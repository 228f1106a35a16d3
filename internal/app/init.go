// Where: internal/app/init.go
// What: Init command handler.
// Why: Scaffold the docker build context for a fresh checkout.
package app

import (
	"fmt"
	"io"

	"github.com/quantfarm/tradebuild/internal/scaffold"
	"github.com/quantfarm/tradebuild/internal/ui"
)

func runInit(cli CLI, deps Dependencies, out io.Writer) int {
	console := ui.New(out)

	contextDir, err := resolveContextDir(cli.Init.Context, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	name := resolveImageName(cli.Init.Name, loadGlobalConfigOrDefault())
	data := scaffold.DefaultContextData(name)

	written, err := scaffold.WriteContext(contextDir, data, cli.Init.Force)
	if err != nil {
		return exitWithError(out, err)
	}

	if len(written) == 0 {
		console.Info(fmt.Sprintf("context %s already initialized (use --force to overwrite)", contextDir))
		return 0
	}

	console.Header("📦", "Initialized build context:")
	for _, path := range written {
		console.ItemPlain(path)
	}
	return 0
}
