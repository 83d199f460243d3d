// Package version carries build metadata for the relief binaries.
// The package-level variables are overwritten at link time, e.g.
//
//	go build -ldflags "-X relief/internal/version.Version=v1.2.0 -X relief/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info is a snapshot of build metadata plus per-process identity.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	infoOnce sync.Once
	current  Info
)

// Get returns the process build info. InstanceID and Hostname are resolved
// on the first call and reused afterwards.
func Get() Info {
	infoOnce.Do(func() {
		current = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			InstanceID: uuid.NewString(),
			Hostname:   hostname(),
		}
	})
	return current
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}

// LogArgs returns key/value pairs suitable for slog.Logger.With.
func (i Info) LogArgs() []any {
	return []any{
		"version", i.Version,
		"git_commit", i.GitCommit,
		"build_date", i.BuildDate,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("relief %s (commit %s, built %s)", i.Version, i.GitCommit, i.BuildDate)
}
