// Where: internal/meta/meta.go
// What: Tool-wide metadata constants.
// Why: Keep identity and layout names in one place.
package meta

const (
	// Project Identity
	AppName   = "tradebuild"
	EnvPrefix = "TRADEBUILD"

	// Directory Layout
	HomeDir    = ".tradebuild"
	ContextDir = "docker"
	ConfigDir  = "config"

	// Artifact Identity
	ArtifactName     = "trading-app"
	DefaultImageName = "trading-app"

	// Canonical staged names expected by the build context.
	SettingsFileName  = "settings.json"
	ServiceClientName = "service_client.json"

	// ManifestFileName is the build manifest written next to the context.
	ManifestFileName = "manifest.json"
)
