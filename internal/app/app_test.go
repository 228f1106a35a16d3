// Where: internal/app/app_test.go
// What: Tests for CLI dispatch and the build command wiring.
package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/quantfarm/tradebuild/internal/image"
	"github.com/quantfarm/tradebuild/internal/publish"
)

const validSettings = `{
  "gcp_sub": "order-events",
  "service_client": "service_client.json",
  "strategies": {"momentum": {"name": "momentum", "max_positions": 5}}
}`

type fakeInvoker struct {
	requests   []image.BuildRequest
	contextDir string
	err        error
}

func (f *fakeInvoker) Invoke(_ context.Context, req image.BuildRequest, contextDir string, onLine func(string)) error {
	f.requests = append(f.requests, req)
	f.contextDir = contextDir
	onLine("Successfully built")
	return f.err
}

type fakePrompter struct {
	confirm bool
	asked   []string
}

func (f *fakePrompter) Confirm(title string) (bool, error) {
	f.asked = append(f.asked, title)
	return f.confirm, nil
}

func (f *fakePrompter) Select(_ string, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	return options[0], nil
}

type fakeDocker struct {
	images  []dockerimage.Summary
	removed []string
}

func (f *fakeDocker) ImageList(_ context.Context, _ dockerimage.ListOptions) ([]dockerimage.Summary, error) {
	return f.images, nil
}

func (f *fakeDocker) ImageRemove(_ context.Context, imageID string, _ dockerimage.RemoveOptions) ([]dockerimage.DeleteResponse, error) {
	f.removed = append(f.removed, imageID)
	return nil, nil
}

type fakeS3 struct {
	bucket string
	key    string
}

func (f *fakeS3) PutObject(_ context.Context, bucket, key string, _ []byte) error {
	f.bucket, f.key = bucket, key
	return nil
}

type fakeFactory struct {
	s3 *fakeS3
}

func (f fakeFactory) S3(context.Context, string) (publish.S3API, error) { return f.s3, nil }
func (f fakeFactory) DynamoDB(context.Context) (publish.DynamoDBAPI, error) {
	return nil, errors.New("not configured")
}

// setupProject creates a valid project layout and isolates the global
// config. Returns the project directory.
func setupProject(t *testing.T) string {
	t.Helper()
	t.Setenv("TRADEBUILD_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "s.json"), []byte(validSettings), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{"type":"service_account"}`), 0o644); err != nil {
		t.Fatalf("write service key: %v", err)
	}
	for _, variant := range []string{"debug", "release"} {
		artifact := filepath.Join(dir, "target", variant, "trading-app")
		if err := os.MkdirAll(filepath.Dir(artifact), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(artifact, []byte(variant), 0o755); err != nil {
			t.Fatalf("write artifact: %v", err)
		}
	}

	t.Chdir(dir)
	return dir
}

func buildArgs(dir string, extra ...string) []string {
	args := []string{
		"build",
		"--tag", "v1",
		"--settings", filepath.Join(dir, "s.json"),
		"--service-key", filepath.Join(dir, "c.json"),
		"--key", "K",
		"--secret", "S",
	}
	return append(args, extra...)
}

func TestRunBuildRunsPipeline(t *testing.T) {
	dir := setupProject(t)
	invoker := &fakeInvoker{}
	var out bytes.Buffer
	deps := Dependencies{ProjectDir: dir, Out: &out, Invoker: invoker}

	exitCode := Run(buildArgs(dir), deps)
	if exitCode != 0 {
		t.Fatalf("exit = %d, output:\n%s", exitCode, out.String())
	}

	if len(invoker.requests) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(invoker.requests))
	}
	req := invoker.requests[0]
	if req.Name != "trading-app" || req.Tag != "v1" {
		t.Errorf("image = %s:%s", req.Name, req.Tag)
	}
	if req.Account != "paper" {
		t.Errorf("account = %s, want default paper", req.Account)
	}
	if invoker.contextDir != filepath.Join(dir, "docker") {
		t.Errorf("context = %s", invoker.contextDir)
	}
	if !strings.Contains(out.String(), "build complete") {
		t.Errorf("missing completion message in %q", out.String())
	}

	// Staged secrets are cleaned up after the build.
	entries, err := os.ReadDir(filepath.Join(dir, "docker", "config"))
	if err != nil {
		t.Fatalf("read config dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("config dir not cleaned: %d entries", len(entries))
	}
}

func TestRunBuildMissingRequiredFlag(t *testing.T) {
	setupProject(t)
	var out bytes.Buffer

	exitCode := Run([]string{"build", "--tag", "v1"}, Dependencies{Out: &out, Invoker: &fakeInvoker{}})
	if exitCode == 0 {
		t.Fatal("expected non-zero exit for missing required flags")
	}
}

func TestRunBuildKeyFromEnvironment(t *testing.T) {
	dir := setupProject(t)
	t.Setenv("TRADEBUILD_KEY", "env-key")
	t.Setenv("TRADEBUILD_SECRET", "env-secret")

	invoker := &fakeInvoker{}
	var out bytes.Buffer
	args := []string{
		"build",
		"--tag", "v1",
		"--settings", filepath.Join(dir, "s.json"),
		"--service-key", filepath.Join(dir, "c.json"),
	}

	exitCode := Run(args, Dependencies{ProjectDir: dir, Out: &out, Invoker: invoker})
	if exitCode != 0 {
		t.Fatalf("exit = %d, output:\n%s", exitCode, out.String())
	}
	if invoker.requests[0].Key != "env-key" || invoker.requests[0].Secret != "env-secret" {
		t.Errorf("credentials not taken from environment: %+v", invoker.requests[0])
	}
}

func TestRunBuildMissingKeyFails(t *testing.T) {
	dir := setupProject(t)
	var out bytes.Buffer
	args := []string{
		"build",
		"--tag", "v1",
		"--settings", filepath.Join(dir, "s.json"),
		"--service-key", filepath.Join(dir, "c.json"),
	}

	exitCode := Run(args, Dependencies{ProjectDir: dir, Out: &out, Invoker: &fakeInvoker{}})
	if exitCode == 0 {
		t.Fatal("expected failure without broker key")
	}
	if !strings.Contains(out.String(), "broker api key required") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestRunBuildLiveAccountConfirmation(t *testing.T) {
	dir := setupProject(t)
	invoker := &fakeInvoker{}
	prompter := &fakePrompter{confirm: false}
	var out bytes.Buffer
	deps := Dependencies{ProjectDir: dir, Out: &out, Invoker: invoker, Prompter: prompter}

	exitCode := Run(buildArgs(dir, "--account", "live"), deps)
	if exitCode == 0 {
		t.Fatal("declined confirmation should abort")
	}
	if len(prompter.asked) != 1 || !strings.Contains(prompter.asked[0], "LIVE") {
		t.Errorf("prompt = %v", prompter.asked)
	}
	if len(invoker.requests) != 0 {
		t.Error("build must not run after declined confirmation")
	}

	prompter.confirm = true
	out.Reset()
	if exitCode := Run(buildArgs(dir, "--account", "live"), deps); exitCode != 0 {
		t.Fatalf("confirmed live build failed: %s", out.String())
	}
	if invoker.requests[0].Account != "live" {
		t.Errorf("account = %s", invoker.requests[0].Account)
	}
}

func TestRunBuildLiveSkipsPromptWithYes(t *testing.T) {
	dir := setupProject(t)
	invoker := &fakeInvoker{}
	prompter := &fakePrompter{}
	var out bytes.Buffer
	deps := Dependencies{ProjectDir: dir, Out: &out, Invoker: invoker, Prompter: prompter}

	exitCode := Run(buildArgs(dir, "--account", "live", "--yes"), deps)
	if exitCode != 0 {
		t.Fatalf("exit = %d: %s", exitCode, out.String())
	}
	if len(prompter.asked) != 0 {
		t.Errorf("prompt should be skipped with --yes, got %v", prompter.asked)
	}
}

func TestRunBuildRejectsInvalidSettings(t *testing.T) {
	dir := setupProject(t)
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"service_client":"x"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	invoker := &fakeInvoker{}
	var out bytes.Buffer
	args := []string{
		"build",
		"--tag", "v1",
		"--settings", bad,
		"--service-key", filepath.Join(dir, "c.json"),
		"--key", "K",
		"--secret", "S",
	}

	exitCode := Run(args, Dependencies{ProjectDir: dir, Out: &out, Invoker: invoker})
	if exitCode == 0 {
		t.Fatal("expected validation failure")
	}
	if len(invoker.requests) != 0 {
		t.Error("pipeline must not run with invalid settings")
	}
	if !strings.Contains(out.String(), "settings validation") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestRunBuildFailureLogsSingleIssueLine(t *testing.T) {
	dir := setupProject(t)
	invoker := &fakeInvoker{err: &image.BuildError{ExitCode: 2, Err: errors.New("step failed")}}
	var out bytes.Buffer

	exitCode := Run(buildArgs(dir), Dependencies{ProjectDir: dir, Out: &out, Invoker: invoker})
	if exitCode == 0 {
		t.Fatal("expected failure exit")
	}
	if !strings.Contains(out.String(), "Issue detected in build build:") {
		t.Errorf("missing phase-tagged issue line in %q", out.String())
	}
}

func TestRunBuildVerifiesImageAndPublishes(t *testing.T) {
	dir := setupProject(t)
	invoker := &fakeInvoker{}
	docker := &fakeDocker{images: []dockerimage.Summary{
		{ID: "sha256:abc", RepoTags: []string{"trading-app:v1"}},
	}}
	s3 := &fakeS3{}
	var out bytes.Buffer
	deps := Dependencies{
		ProjectDir: dir,
		Out:        &out,
		Invoker:    invoker,
		Docker:     docker,
		Publisher:  fakeFactory{s3: s3},
		Now:        func() time.Time { return time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) },
	}

	exitCode := Run(buildArgs(dir, "--manifest-bucket", "build-manifests"), deps)
	if exitCode != 0 {
		t.Fatalf("exit = %d: %s", exitCode, out.String())
	}

	if !strings.Contains(out.String(), "sha256:abc") {
		t.Errorf("missing verified image id in %q", out.String())
	}
	if s3.bucket != "build-manifests" || s3.key != "manifests/trading-app/v1.json" {
		t.Errorf("s3 upload = %s/%s", s3.bucket, s3.key)
	}
	if _, err := os.Stat(filepath.Join(dir, "docker", "manifest.json")); err != nil {
		t.Errorf("local manifest missing: %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	t.Setenv("TRADEBUILD_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	if exitCode := Run([]string{"version"}, Dependencies{Out: &out}); exitCode != 0 {
		t.Fatalf("exit = %d", exitCode)
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Error("empty version output")
	}
}

func TestRunVersionWithUnwritableConfigHome(t *testing.T) {
	// A regular file where the config directory should be makes the
	// bootstrap fail; commands that don't need the config still work.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	t.Setenv("TRADEBUILD_CONFIG_PATH", filepath.Join(blocker, "config.yaml"))

	var out bytes.Buffer
	if exitCode := Run([]string{"version"}, Dependencies{Out: &out}); exitCode != 0 {
		t.Fatalf("exit = %d: %s", exitCode, out.String())
	}
	if !strings.Contains(out.String(), "Warning: could not initialize global config") {
		t.Errorf("missing bootstrap warning in %q", out.String())
	}
}

func TestRunValidateCommand(t *testing.T) {
	dir := setupProject(t)
	var out bytes.Buffer

	exitCode := Run([]string{"validate", filepath.Join(dir, "s.json")}, Dependencies{Out: &out})
	if exitCode != 0 {
		t.Fatalf("exit = %d: %s", exitCode, out.String())
	}
	if !strings.Contains(out.String(), "is valid") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	exitCode = Run([]string{"validate", filepath.Join(dir, "c.json")}, Dependencies{Out: &out})
	if exitCode == 0 {
		t.Fatal("service key should not validate as settings")
	}
}

func TestRunInitScaffoldsContext(t *testing.T) {
	dir := setupProject(t)
	var out bytes.Buffer

	exitCode := Run([]string{"init"}, Dependencies{ProjectDir: dir, Out: &out})
	if exitCode != 0 {
		t.Fatalf("exit = %d: %s", exitCode, out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "docker", "Dockerfile")); err != nil {
		t.Errorf("Dockerfile missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "docker", "config")); err != nil {
		t.Errorf("config dir missing: %v", err)
	}
}

func TestRunConfigSetAndShow(t *testing.T) {
	t.Setenv("TRADEBUILD_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer

	exitCode := Run([]string{"config", "set", "--manifest-bucket", "my-bucket"}, Dependencies{Out: &out})
	if exitCode != 0 {
		t.Fatalf("set exit = %d: %s", exitCode, out.String())
	}

	out.Reset()
	exitCode = Run([]string{"config", "show"}, Dependencies{Out: &out})
	if exitCode != 0 {
		t.Fatalf("show exit = %d", exitCode)
	}
	if !strings.Contains(out.String(), "my-bucket") {
		t.Errorf("config show output = %q", out.String())
	}
}

func TestRunPruneRemovesLeftovers(t *testing.T) {
	dir := setupProject(t)
	leftover := filepath.Join(dir, "docker", "config", "settings.json")
	if err := os.MkdirAll(filepath.Dir(leftover), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(leftover, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	exitCode := Run([]string{"prune", "--yes"}, Dependencies{ProjectDir: dir, Out: &out})
	if exitCode != 0 {
		t.Fatalf("exit = %d: %s", exitCode, out.String())
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Error("leftover staged file not removed")
	}
}

func TestRunPruneImages(t *testing.T) {
	dir := setupProject(t)
	docker := &fakeDocker{images: []dockerimage.Summary{
		{ID: "sha256:abc", RepoTags: []string{"trading-app:v1"}},
	}}

	var out bytes.Buffer
	exitCode := Run([]string{"prune", "--images", "--yes"}, Dependencies{ProjectDir: dir, Out: &out, Docker: docker})
	if exitCode != 0 {
		t.Fatalf("exit = %d: %s", exitCode, out.String())
	}
	if len(docker.removed) != 1 || docker.removed[0] != "trading-app:v1" {
		t.Errorf("removed = %v", docker.removed)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	t.Setenv("TRADEBUILD_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	if exitCode := Run([]string{"bogus"}, Dependencies{Out: &out}); exitCode == 0 {
		t.Fatal("expected failure for unknown command")
	}
}
