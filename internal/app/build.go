// Where: internal/app/build.go
// What: Build command handler.
// Why: Resolve inputs, run the staging/build/cleanup pipeline, publish the manifest.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/quantfarm/tradebuild/internal/config"
	"github.com/quantfarm/tradebuild/internal/image"
	"github.com/quantfarm/tradebuild/internal/interaction"
	"github.com/quantfarm/tradebuild/internal/meta"
	"github.com/quantfarm/tradebuild/internal/pipeline"
	"github.com/quantfarm/tradebuild/internal/publish"
	"github.com/quantfarm/tradebuild/internal/settings"
	"github.com/quantfarm/tradebuild/internal/ui"
)

func runBuild(cli CLI, deps Dependencies, out io.Writer) int {
	console := ui.New(out)
	cfg := loadGlobalConfigOrDefault()

	name := resolveImageName(cli.Build.Name, cfg)
	key := strings.TrimSpace(cli.Build.Key)
	secret := strings.TrimSpace(cli.Build.Secret)
	if key == "" {
		return exitWithError(out, fmt.Errorf("broker api key required (--key or %s_KEY)", meta.EnvPrefix))
	}
	if secret == "" {
		return exitWithError(out, fmt.Errorf("broker api secret required (--secret or %s_SECRET)", meta.EnvPrefix))
	}

	contextDir, err := resolveContextDir(cli.Build.Context, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	if cli.Build.Account != "paper" && !cli.Build.Yes {
		confirmed, err := confirmLiveBuild(deps, name, cli.Build.Tag)
		if err != nil {
			return exitWithError(out, err)
		}
		if !confirmed {
			fmt.Fprintln(out, "Aborted.")
			return 1
		}
	}

	if !cli.Build.SkipValidate {
		if err := settings.ValidateFile(cli.Build.Settings); err != nil {
			return exitWithError(out, fmt.Errorf("settings validation: %w", err))
		}
	}

	console.Header("🐳", fmt.Sprintf("Building %s:%s", name, cli.Build.Tag))
	console.Item("Account", cli.Build.Account)
	console.Item("Context", contextDir)

	invoker := deps.Invoker
	if invoker == nil {
		invoker = image.NewCLIInvoker()
	}

	request := pipeline.Request{
		Name:           name,
		Tag:            cli.Build.Tag,
		SettingsPath:   cli.Build.Settings,
		ServiceKeyPath: cli.Build.ServiceKey,
		Key:            key,
		Secret:         secret,
		Account:        cli.Build.Account,
		ContextDir:     contextDir,
	}

	pipe := pipeline.New(invoker, console)
	if err := pipe.Run(context.Background(), request); err != nil {
		console.Error(fmt.Sprintf("Issue detected in build %v", err))
		return 1
	}

	imageID := verifyImage(deps, console, name+":"+cli.Build.Tag)
	publishManifest(cli, deps, console, cfg, request, imageID)
	saveBuildDefaults(cfg, cli, name)

	console.Success(fmt.Sprintf("build complete: %s:%s", name, cli.Build.Tag))
	return 0
}

// confirmLiveBuild asks before baking live-account credentials into an
// image. Non-interactive runs must pass --yes explicitly.
func confirmLiveBuild(deps Dependencies, name, tag string) (bool, error) {
	title := fmt.Sprintf("Build %s:%s against a LIVE trading account?", name, tag)
	if deps.Prompter != nil {
		return deps.Prompter.Confirm(title)
	}
	if !interaction.IsTerminal(os.Stdin) {
		return false, fmt.Errorf("live build requires --yes in non-interactive mode")
	}
	return interaction.PromptYesNo(title)
}

// verifyImage confirms the built tag is visible through the Docker API and
// returns its image ID for the manifest. Verification is advisory only.
func verifyImage(deps Dependencies, console *ui.Console, reference string) string {
	if deps.Docker == nil {
		return ""
	}

	imageID, err := image.ResolveImageID(context.Background(), deps.Docker, reference)
	if err != nil {
		console.Warn(fmt.Sprintf("verify image %s: %v", reference, err))
		return ""
	}
	if imageID == "" {
		console.Warn(fmt.Sprintf("image %s not found after build", reference))
		return ""
	}
	console.Item("Image ID", imageID)
	return imageID
}

// publishManifest writes the local manifest and uploads it to the
// configured targets. Failures never fail the build.
func publishManifest(
	cli CLI,
	deps Dependencies,
	console *ui.Console,
	cfg config.GlobalConfig,
	request pipeline.Request,
	imageID string,
) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	manifest, err := publish.NewManifest(
		request.Name, request.Tag, request.Account, imageID, request.SettingsPath, now())
	if err != nil {
		console.Warn(fmt.Sprintf("manifest: %v", err))
		return
	}

	if path, err := publish.WriteLocal(manifest, request.ContextDir); err != nil {
		console.Warn(fmt.Sprintf("manifest: %v", err))
	} else {
		console.Item("Manifest", path)
	}

	opts := publish.Options{
		Bucket:     firstNonEmpty(cli.Build.ManifestBucket, cfg.Defaults.ManifestBucket),
		Table:      firstNonEmpty(cli.Build.HistoryTable, cfg.Defaults.HistoryTable),
		S3Endpoint: firstNonEmpty(cli.Build.S3Endpoint, cfg.Defaults.S3Endpoint),
	}
	if !opts.Enabled() {
		return
	}

	factory := deps.Publisher
	if factory == nil {
		factory = publish.NewClientFactory()
	}
	publisher := publish.Publisher{Factory: factory}
	for _, warning := range publisher.Publish(context.Background(), manifest, opts) {
		console.Warn(warning.Error())
	}
}

// saveBuildDefaults records last-used build inputs, best effort.
func saveBuildDefaults(cfg config.GlobalConfig, cli CLI, name string) {
	cfg.Defaults.Name = name
	cfg.Defaults.Account = cli.Build.Account
	cfg.Defaults.LastTag = cli.Build.Tag
	if cli.Build.ManifestBucket != "" {
		cfg.Defaults.ManifestBucket = cli.Build.ManifestBucket
	}
	if cli.Build.HistoryTable != "" {
		cfg.Defaults.HistoryTable = cli.Build.HistoryTable
	}

	path, err := config.GlobalConfigPath()
	if err != nil {
		return
	}
	_ = config.SaveGlobalConfig(path, cfg)
}
