// Where: internal/staging/staging.go
// What: Staging plan for the docker build context.
// Why: Keep copy/rename/cleanup aligned on a single source of truth for what lands in config/.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/quantfarm/tradebuild/internal/meta"
)

// Error describes a staging failure for a specific path.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("staging %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Plan describes the files staged into the build context for one build.
// Source order is significant: files are copied in sequence and cleanup
// covers exactly what the plan places in the target directory.
type Plan struct {
	SourceFiles []string
	TargetDir   string
	Renames     map[string]string
}

// ArtifactPath returns the compiled application path for the account mode.
// Paper accounts run the debug build; anything else runs release.
func ArtifactPath(account string) string {
	variant := "release"
	if account == "paper" {
		variant = "debug"
	}
	return filepath.Join("target", variant, meta.ArtifactName)
}

// PlanFor derives the staging plan for the given inputs. The settings and
// service-key files are renamed to the canonical names the image build
// expects; the compiled artifact keeps its basename.
func PlanFor(settingsPath, serviceKeyPath, account, contextDir string) Plan {
	return Plan{
		SourceFiles: []string{
			settingsPath,
			serviceKeyPath,
			ArtifactPath(account),
		},
		TargetDir: filepath.Join(contextDir, meta.ConfigDir),
		Renames: map[string]string{
			filepath.Base(settingsPath):   meta.SettingsFileName,
			filepath.Base(serviceKeyPath): meta.ServiceClientName,
		},
	}
}

// CleanupSet returns the absolute paths the plan leaves in the target
// directory after rename, in deletion order. It never includes a path the
// plan did not place there.
func (p Plan) CleanupSet() []string {
	return []string{
		filepath.Join(p.TargetDir, meta.SettingsFileName),
		filepath.Join(p.TargetDir, meta.ArtifactName),
		filepath.Join(p.TargetDir, meta.ServiceClientName),
	}
}

// Stage copies each source file into targetDir, preserving basenames and
// file modes. Files are copied in order with no rollback: the returned
// slice lists the destination paths actually created, including partial
// results when an error is returned.
func Stage(files []string, targetDir string) ([]string, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, &Error{Op: "mkdir", Path: targetDir, Err: err}
	}

	created := make([]string, 0, len(files))
	for _, src := range files {
		dst := filepath.Join(targetDir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return created, &Error{Op: "copy", Path: src, Err: err}
		}
		created = append(created, dst)
	}
	return created, nil
}

// Rename renames files already present in targetDir (by original basename)
// to their canonical names, overwriting any existing destination. A missing
// source-named file is an error. Entries are processed in sorted key order
// to keep failures deterministic.
func Rename(renames map[string]string, targetDir string) error {
	names := make([]string, 0, len(renames))
	for name := range renames {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := filepath.Join(targetDir, name)
		dst := filepath.Join(targetDir, renames[name])
		if src == dst {
			continue
		}
		if _, err := os.Stat(src); err != nil {
			return &Error{Op: "rename", Path: src, Err: err}
		}
		if err := os.Rename(src, dst); err != nil {
			return &Error{Op: "rename", Path: src, Err: err}
		}
	}
	return nil
}

// Cleanup deletes each path if present. Missing paths are reported as
// warnings, not errors; any other removal failure aborts with an error.
func Cleanup(paths []string) (missing []string, err error) {
	for _, path := range paths {
		removeErr := os.Remove(path)
		if removeErr == nil {
			continue
		}
		if os.IsNotExist(removeErr) {
			missing = append(missing, path)
			continue
		}
		return missing, &Error{Op: "remove", Path: path, Err: removeErr}
	}
	return missing, nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	// O_CREATE only applies the mode to new files; an existing destination
	// keeps its old permissions unless reset here.
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		out.Close()
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
