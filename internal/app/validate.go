// Where: internal/app/validate.go
// What: Validate command handler.
package app

import (
	"fmt"
	"io"

	"github.com/quantfarm/tradebuild/internal/settings"
	"github.com/quantfarm/tradebuild/internal/ui"
)

func runValidate(cli CLI, _ Dependencies, out io.Writer) int {
	console := ui.New(out)

	if err := settings.ValidateFile(cli.Validate.Settings); err != nil {
		return exitWithError(out, err)
	}

	console.Success(fmt.Sprintf("%s is valid", cli.Validate.Settings))
	return 0
}
