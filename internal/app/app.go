// Where: internal/app/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/quantfarm/tradebuild/internal/config"
	"github.com/quantfarm/tradebuild/internal/image"
	"github.com/quantfarm/tradebuild/internal/interaction"
	"github.com/quantfarm/tradebuild/internal/meta"
	"github.com/quantfarm/tradebuild/internal/publish"
	"github.com/quantfarm/tradebuild/internal/version"
)

// Dependencies holds all injected dependencies required for CLI command
// execution. This structure enables dependency injection for testing and
// allows swapping implementations of various subsystems.
type Dependencies struct {
	ProjectDir string
	Out        io.Writer
	Invoker    image.Invoker
	Docker     image.DockerClient
	Publisher  publish.ClientFactory
	Prompter   interaction.Prompter
	Now        func() time.Time
}

// CLI defines the command-line interface structure parsed by Kong.
type CLI struct {
	EnvFile  string      `name:"env-file" help:"Path to .env file"`
	Build    BuildCmd    `cmd:"" help:"Stage config and build the trading-app image"`
	Init     InitCmd     `cmd:"" help:"Scaffold the docker build context"`
	Validate ValidateCmd `cmd:"" help:"Validate a settings file against the schema"`
	Prune    PruneCmd    `cmd:"" help:"Remove leftover staged files and image tags"`
	Config   ConfigCmd   `cmd:"" name:"config" help:"Manage configuration"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

type BuildCmd struct {
	Name           string `help:"Name of image (default: from config)"`
	Tag            string `required:"" help:"Image tag"`
	Settings       string `required:"" help:"Trading app settings file [json]"`
	ServiceKey     string `name:"service-key" required:"" help:"Service-key json file for google credentials"`
	Key            string `env:"TRADEBUILD_KEY" help:"Broker api key"`
	Secret         string `env:"TRADEBUILD_SECRET" help:"Broker api secret"`
	Account        string `default:"paper" enum:"paper,live" help:"Broker account type [paper|live]"`
	Context        string `help:"Build context directory (default: ./docker)"`
	SkipValidate   bool   `name:"skip-validate" help:"Skip settings schema validation"`
	Yes            bool   `short:"y" help:"Skip confirmation prompt for live builds"`
	ManifestBucket string `name:"manifest-bucket" help:"S3 bucket for the build manifest"`
	HistoryTable   string `name:"history-table" help:"DynamoDB table for build history"`
	S3Endpoint     string `name:"s3-endpoint" help:"Custom S3-compatible endpoint for manifest upload"`
}

type InitCmd struct {
	Name    string `help:"Image name used in the rendered Dockerfile"`
	Context string `help:"Build context directory (default: ./docker)"`
	Force   bool   `help:"Overwrite existing context files"`
}

type ValidateCmd struct {
	Settings string `arg:"" help:"Settings file to validate"`
}

type PruneCmd struct {
	Name    string `help:"Image name whose tags to remove (default: from config)"`
	Context string `help:"Build context directory (default: ./docker)"`
	Images  bool   `help:"Also remove the image tags for this app"`
	Yes     bool   `short:"y" help:"Skip confirmation prompt"`
}

type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" default:"withargs" help:"Show global configuration"`
	Set  ConfigSetCmd  `cmd:"" help:"Set build defaults"`
}

type ConfigShowCmd struct{}

type ConfigSetCmd struct {
	Name           string `help:"Default image name"`
	Account        string `help:"Default account type"`
	ManifestBucket string `name:"manifest-bucket" help:"Default S3 manifest bucket"`
	HistoryTable   string `name:"history-table" help:"Default DynamoDB history table"`
	S3Endpoint     string `name:"s3-endpoint" help:"Default S3-compatible endpoint"`
}

type VersionCmd struct{}

// Run is the main entry point for CLI command execution. It parses the
// arguments, identifies the requested command, and dispatches to the
// appropriate handler. Returns 0 on success, 1 on error.
func Run(args []string, deps Dependencies) int {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	// Commands fall back to built-in defaults when the config file cannot
	// be created, so a failed bootstrap is a warning, not a hard stop.
	if err := config.EnsureGlobalConfig(); err != nil {
		fmt.Fprintf(out, "Warning: could not initialize global config: %v\n", err)
	}

	loadEnvFile(args, out)

	cli := CLI{}
	parser, err := kong.New(&cli, kong.Name(meta.AppName))
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return exitWithError(out, err)
	}

	command := ctx.Command()
	if exitCode, handled := dispatchCommand(command, cli, deps, out); handled {
		return exitCode
	}

	fmt.Fprintln(out, "unknown command")
	return 1
}

type commandHandler func(CLI, Dependencies, io.Writer) int

func dispatchCommand(command string, cli CLI, deps Dependencies, out io.Writer) (int, bool) {
	handlers := map[string]commandHandler{
		"build":               runBuild,
		"init":                runInit,
		"validate <settings>": runValidate,
		"prune":               runPrune,
		"config":              runConfigShow,
		"config show":         runConfigShow,
		"config set":          runConfigSet,
		"version":             func(_ CLI, _ Dependencies, out io.Writer) int { return runVersion(out) },
	}

	if handler, ok := handlers[command]; ok {
		return handler(cli, deps, out), true
	}
	return 1, false
}

// runVersion prints the version information of the CLI.
func runVersion(out io.Writer) int {
	fmt.Fprintln(out, version.GetVersion())
	return 0
}

// loadEnvFile loads --env-file when given, or .env from the current
// directory when present. Values feed the kong env-tagged flags, so this
// happens before parsing.
func loadEnvFile(args []string, out io.Writer) {
	path := envFileArg(args)
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(out, "Warning: failed to load env file %s: %v\n", path, err)
		}
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(out, "Warning: failed to load .env: %v\n", err)
		}
	}
}

// envFileArg extracts the --env-file value from raw args, if present.
func envFileArg(args []string) string {
	for i, arg := range args {
		if arg == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
		if value, ok := strings.CutPrefix(arg, "--env-file="); ok {
			return value
		}
	}
	return ""
}
