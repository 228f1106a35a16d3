// Where: internal/pipeline/pipeline.go
// What: Stage → build → clean orchestration for one image build.
// Why: Keep the failure boundary and cleanup guarantees in a single place.
package pipeline

import (
	"context"
	"fmt"

	"github.com/quantfarm/tradebuild/internal/image"
	"github.com/quantfarm/tradebuild/internal/staging"
	"github.com/quantfarm/tradebuild/internal/ui"
)

// State tracks pipeline progress. Aborted is terminal and reachable from
// any state on failure.
type State int

const (
	StateInit State = iota
	StateStaged
	StateBuilt
	StateCleanedUp
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStaged:
		return "staged"
	case StateBuilt:
		return "built"
	case StateCleanedUp:
		return "cleaned-up"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Phase names the pipeline step that produced an error.
type Phase string

const (
	PhaseStaging Phase = "staging"
	PhaseBuild   Phase = "build"
	PhaseCleanup Phase = "cleanup"
)

// PhaseError wraps a step failure with the phase it occurred in, so the
// single logged line at the CLI boundary can name the failing step.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Request is the resolved input for one build. Immutable once constructed.
type Request struct {
	Name           string
	Tag            string
	SettingsPath   string
	ServiceKeyPath string
	Key            string
	Secret         string
	Account        string
	ContextDir     string
}

func (r Request) buildRequest() image.BuildRequest {
	return image.BuildRequest{
		Name:        r.Name,
		Tag:         r.Tag,
		SettingsArg: r.SettingsPath,
		Key:         r.Key,
		Secret:      r.Secret,
		Account:     r.Account,
	}
}

// Pipeline sequences staging, the external image build, and cleanup.
type Pipeline struct {
	invoker image.Invoker
	console *ui.Console
	state   State
}

// New constructs a Pipeline. A nil console discards output.
func New(invoker image.Invoker, console *ui.Console) *Pipeline {
	if console == nil {
		console = ui.New(nil)
	}
	return &Pipeline{invoker: invoker, console: console, state: StateInit}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State { return p.state }

// Run executes the full pipeline for the request. Staged secrets are
// removed whenever staging placed them, regardless of build outcome; on a
// staging failure, cleanup runs best-effort over the files that were
// actually created before the failure. The returned error, if any, is a
// *PhaseError naming the failing step.
func (p *Pipeline) Run(ctx context.Context, req Request) error {
	plan := staging.PlanFor(req.SettingsPath, req.ServiceKeyPath, req.Account, req.ContextDir)

	created, err := staging.Stage(plan.SourceFiles, plan.TargetDir)
	if err != nil {
		p.abortWithCleanup(created)
		return &PhaseError{Phase: PhaseStaging, Err: err}
	}
	if err := staging.Rename(plan.Renames, plan.TargetDir); err != nil {
		// A partial rename may have produced canonical names already, so
		// the deletion set covers both the copied and renamed paths.
		p.abortWithCleanup(append(created, plan.CleanupSet()...))
		return &PhaseError{Phase: PhaseStaging, Err: err}
	}
	p.state = StateStaged

	buildErr := p.invoker.Invoke(ctx, req.buildRequest(), req.ContextDir, p.console.Line)
	if buildErr == nil {
		p.state = StateBuilt
	}

	missing, cleanupErr := staging.Cleanup(plan.CleanupSet())
	p.warnMissing(missing)
	if cleanupErr == nil {
		p.state = StateCleanedUp
	}

	if buildErr != nil {
		if cleanupErr != nil {
			p.console.Warn(fmt.Sprintf("cleanup after failed build: %v", cleanupErr))
		}
		p.state = StateAborted
		return &PhaseError{Phase: PhaseBuild, Err: buildErr}
	}
	if cleanupErr != nil {
		p.state = StateAborted
		return &PhaseError{Phase: PhaseCleanup, Err: cleanupErr}
	}

	p.state = StateDone
	return nil
}

// abortWithCleanup removes whatever a failed staging attempt managed to
// create. Missing paths are ignored; only files this run placed (or
// renamed into place) are candidates.
func (p *Pipeline) abortWithCleanup(candidates []string) {
	p.state = StateAborted

	seen := make(map[string]struct{}, len(candidates))
	paths := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	if _, err := staging.Cleanup(paths); err != nil {
		p.console.Warn(fmt.Sprintf("cleanup after failed staging: %v", err))
	}
}

func (p *Pipeline) warnMissing(missing []string) {
	for _, path := range missing {
		p.console.Warn(fmt.Sprintf("cleanup: %s was already gone", path))
	}
}
