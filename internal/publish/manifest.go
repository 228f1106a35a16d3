// Where: internal/publish/manifest.go
// What: Build manifest construction and local output.
// Why: Record what was built without persisting any secret material.
package publish

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/quantfarm/tradebuild/internal/meta"
)

// Manifest describes one completed image build. It carries no credentials;
// the settings file is referenced only by digest.
type Manifest struct {
	Image          string    `json:"image"`
	Tag            string    `json:"tag"`
	Account        string    `json:"account"`
	ImageID        string    `json:"image_id,omitempty"`
	SettingsDigest string    `json:"settings_digest"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewManifest builds a manifest for a finished build, digesting the
// settings file that was baked into the image.
func NewManifest(name, tag, account, imageID, settingsPath string, now time.Time) (Manifest, error) {
	content, err := os.ReadFile(settingsPath)
	if err != nil {
		return Manifest{}, fmt.Errorf("digest settings: %w", err)
	}
	sum := sha256.Sum256(content)

	return Manifest{
		Image:          name,
		Tag:            tag,
		Account:        account,
		ImageID:        imageID,
		SettingsDigest: "sha256:" + hex.EncodeToString(sum[:]),
		CreatedAt:      now.UTC(),
	}, nil
}

// Reference returns the image:tag reference the manifest describes.
func (m Manifest) Reference() string {
	return m.Image + ":" + m.Tag
}

// ObjectKey returns the S3 object key for the manifest.
func (m Manifest) ObjectKey() string {
	return path.Join("manifests", m.Image, m.Tag+".json")
}

// Encode renders the manifest as indented JSON.
func (m Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// WriteLocal writes the manifest next to the build context and returns the
// written path.
func WriteLocal(m Manifest, contextDir string) (string, error) {
	payload, err := m.Encode()
	if err != nil {
		return "", err
	}
	target := filepath.Join(contextDir, meta.ManifestFileName)
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		return "", err
	}
	return target, nil
}
