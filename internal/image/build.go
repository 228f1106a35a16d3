// Where: internal/image/build.go
// What: Docker build invocation with the fixed build-argument shape.
// Why: Downstream consumers depend on this exact argv order.
package image

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// BuildRequest carries the inputs for one docker build invocation.
// SettingsArg is the settings file path string passed through verbatim as a
// build argument; its content is never inlined here.
type BuildRequest struct {
	Name        string
	Tag         string
	SettingsArg string
	Key         string
	Secret      string
	Account     string
}

// Reference returns the name:tag image reference for the request.
func (r BuildRequest) Reference() string {
	return r.Name + ":" + r.Tag
}

// BuildError describes a failed or unstartable build process.
type BuildError struct {
	ExitCode int
	Err      error
}

func (e *BuildError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("docker build exited with code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("docker build failed to run: %v", e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// BuildArgs constructs the docker CLI argument list for the request.
// The order is fixed: key, secret, settings, account build args, then the
// name:tag target, then the context directory.
func BuildArgs(req BuildRequest, contextDir string) []string {
	return []string{
		"build",
		"--build-arg", "key=" + req.Key,
		"--build-arg", "secret=" + req.Secret,
		"--build-arg", "settings=" + req.SettingsArg,
		"--build-arg", "account=" + req.Account,
		"-t", req.Reference(),
		contextDir,
	}
}

// Invoker runs an image build for a request against a context directory,
// forwarding each output line to onLine as it is produced.
type Invoker interface {
	Invoke(ctx context.Context, req BuildRequest, contextDir string, onLine func(string)) error
}

// CLIInvoker shells out to the docker CLI through a StreamRunner.
type CLIInvoker struct {
	Runner StreamRunner
}

// NewCLIInvoker returns a CLIInvoker backed by ExecRunner.
func NewCLIInvoker() CLIInvoker {
	return CLIInvoker{Runner: ExecRunner{}}
}

func (i CLIInvoker) Invoke(ctx context.Context, req BuildRequest, contextDir string, onLine func(string)) error {
	err := i.Runner.RunStream(ctx, "", "docker", onLine, BuildArgs(req, contextDir)...)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &BuildError{ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &BuildError{Err: err}
}
