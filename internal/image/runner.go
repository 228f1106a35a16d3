// Where: internal/image/runner.go
// What: Streaming command runner for external build tools.
// Why: Surface build output line-by-line as the process emits it.
package image

import (
	"bufio"
	"context"
	"io"
	"os/exec"
)

// StreamRunner executes an external command and delivers its combined
// stdout/stderr to onLine as each line arrives. The call blocks until the
// process exits; the returned error is the process exit error, if any.
type StreamRunner interface {
	RunStream(ctx context.Context, dir, name string, onLine func(string), args ...string) error
}

// ExecRunner is a concrete StreamRunner using os/exec.
type ExecRunner struct{}

func (ExecRunner) RunStream(ctx context.Context, dir, name string, onLine func(string), args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return err
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// The process may still be blocked writing to the pipe; keep
		// draining so Wait can complete.
		io.Copy(io.Discard, pr)
	}

	if err := <-waitErr; err != nil {
		return err
	}
	return scanErr
}
