// Where: internal/scaffold/scaffold.go
// What: Render the docker/ build context from embedded templates.
// Why: Give new checkouts a working context without hand-writing a Dockerfile.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/quantfarm/tradebuild/internal/meta"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateCache sync.Map

// ContextData parameterizes the rendered build context.
type ContextData struct {
	AppName      string
	Name         string
	ArtifactName string
}

// DefaultContextData returns the template data for an image name.
func DefaultContextData(name string) ContextData {
	if name == "" {
		name = meta.DefaultImageName
	}
	return ContextData{
		AppName:      meta.AppName,
		Name:         name,
		ArtifactName: meta.ArtifactName,
	}
}

// Render executes the named embedded template with the provided data.
func Render(name string, data ContextData) (string, error) {
	tmpl, err := loadTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// WriteContext writes the Dockerfile and .dockerignore into contextDir and
// creates the config/ staging directory. Existing files are left alone
// unless force is set. Returns the paths written.
func WriteContext(contextDir string, data ContextData, force bool) ([]string, error) {
	if err := os.MkdirAll(filepath.Join(contextDir, meta.ConfigDir), 0o755); err != nil {
		return nil, err
	}

	outputs := []struct {
		template string
		file     string
	}{
		{template: "dockerfile.tmpl", file: "Dockerfile"},
		{template: "dockerignore.tmpl", file: ".dockerignore"},
	}

	var written []string
	for _, output := range outputs {
		target := filepath.Join(contextDir, output.file)
		if !force {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}

		content, err := Render(output.template, data)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

func loadTemplate(name string) (*template.Template, error) {
	if cached, ok := templateCache.Load(name); ok {
		return cached.(*template.Template), nil
	}

	tmpl, err := template.New(name).
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	templateCache.Store(name, tmpl)
	return tmpl, nil
}
