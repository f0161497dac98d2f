// Package version reports the pgmanager build and checks server versions.
package version

import (
	"fmt"
	"runtime"

	goversion "github.com/hashicorp/go-version"
)

var (
	// Version is the version of the CLI
	Version = "0.1.0"
	// BuildDate is the build date
	BuildDate = "unknown"
	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// MinimumServer is the oldest server release each provider is tested against.
var MinimumServer = map[string]string{
	"postgresql": "9.1",
	"mysql":      "5.7",
	"sqlite":     "3.35",
}

// Info holds version information
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
}

// Get returns version information
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a formatted version string
func (i Info) String() string {
	return fmt.Sprintf("pgmanager version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString returns a detailed version string
func (i Info) FullString() string {
	return fmt.Sprintf(`pgmanager version %s
Build Date: %s
Git Commit: %s
Platform: %s
Go Version: %s`, i.Version, i.BuildDate, i.GitCommit, i.Platform, i.GoVersion)
}

// CheckServer reports whether server meets the minimum for provider. Unknown
// providers are accepted.
func CheckServer(provider string, server *goversion.Version) (bool, string, error) {
	raw, ok := MinimumServer[provider]
	if !ok {
		return true, "", nil
	}
	minimum, err := goversion.NewVersion(raw)
	if err != nil {
		return false, raw, fmt.Errorf("invalid minimum version format: %w", err)
	}
	return !server.LessThan(minimum), raw, nil
}
