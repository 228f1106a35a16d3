// Where: internal/app/prune.go
// What: Prune command handler.
// Why: Remove staged leftovers and stale image tags safely.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quantfarm/tradebuild/internal/image"
	"github.com/quantfarm/tradebuild/internal/interaction"
	"github.com/quantfarm/tradebuild/internal/meta"
	"github.com/quantfarm/tradebuild/internal/staging"
	"github.com/quantfarm/tradebuild/internal/ui"
)

// runPrune removes any staged config files a previous run left behind in
// the build context, and with --images also the app's image tags.
func runPrune(cli CLI, deps Dependencies, out io.Writer) int {
	console := ui.New(out)

	contextDir, err := resolveContextDir(cli.Prune.Context, deps)
	if err != nil {
		return exitWithError(out, err)
	}
	name := resolveImageName(cli.Prune.Name, loadGlobalConfigOrDefault())

	leftovers := leftoverStagedFiles(contextDir)
	if len(leftovers) == 0 && !cli.Prune.Images {
		console.Info("nothing to prune")
		return 0
	}

	printPruneWarning(out, leftovers, cli.Prune.Images, name)
	if !cli.Prune.Yes {
		confirmed, err := confirmPrune(deps)
		if err != nil {
			return exitWithError(out, err)
		}
		if !confirmed {
			fmt.Fprintln(out, "Aborted.")
			return 1
		}
	}

	if _, err := staging.Cleanup(leftovers); err != nil {
		return exitWithError(out, err)
	}
	for _, path := range leftovers {
		console.ItemPlain("removed " + path)
	}

	if cli.Prune.Images {
		if deps.Docker == nil {
			return exitWithError(out, fmt.Errorf("prune --images: docker client not configured"))
		}
		removed, err := image.RemoveTags(context.Background(), deps.Docker, name)
		if err != nil {
			return exitWithError(out, err)
		}
		for _, tag := range removed {
			console.ItemPlain("removed image " + tag)
		}
	}

	console.Success("prune complete")
	return 0
}

// leftoverStagedFiles returns the canonical staged paths that currently
// exist in the context's config directory. Only names the stager places
// there are candidates.
func leftoverStagedFiles(contextDir string) []string {
	configDir := filepath.Join(contextDir, meta.ConfigDir)
	candidates := []string{
		filepath.Join(configDir, meta.SettingsFileName),
		filepath.Join(configDir, meta.ArtifactName),
		filepath.Join(configDir, meta.ServiceClientName),
	}

	var present []string
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			present = append(present, path)
		}
	}
	return present
}

func printPruneWarning(out io.Writer, leftovers []string, images bool, name string) {
	fmt.Fprintln(out, "WARNING! This will remove:")
	for _, path := range leftovers {
		fmt.Fprintf(out, "  - %s\n", path)
	}
	if images {
		fmt.Fprintf(out, "  - all %s image tags\n", name)
	}
}

func confirmPrune(deps Dependencies) (bool, error) {
	if deps.Prompter != nil {
		return deps.Prompter.Confirm("Are you sure you want to continue?")
	}
	if !interaction.IsTerminal(os.Stdin) {
		return false, fmt.Errorf("prune requires --yes in non-interactive mode")
	}
	return interaction.PromptYesNo("Are you sure you want to continue?")
}
