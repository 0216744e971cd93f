// Package version carries the mockingress build stamp. It is reported by
// /version, /health, `mockingress version` and sent as the User-Agent of the
// built-in collector and dashboard clients.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/zsiec/mockingress/pkg/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
	OS        = runtime.GOOS
	Arch      = runtime.GOARCH
)

type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        OS,
		Arch:      Arch,
	}
}

// String is the line printed by `mockingress version`.
func (i Info) String() string {
	return fmt.Sprintf("mockingress %s (commit: %s, built: %s, go: %s, os/arch: %s/%s)",
		i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.OS, i.Arch)
}

// Short is printed by `mockingress version --short` and logged at startup.
func (i Info) Short() string {
	return fmt.Sprintf("mockingress %s", i.Version)
}

// UserAgent identifies traffic from one of the bundled clients, e.g.
// "mockingress-collector/dev (linux/amd64)", so recorded requests from the
// fake collector can be told apart from a real SDK.
func UserAgent(component string) string {
	return fmt.Sprintf("mockingress-%s/%s (%s/%s)", component, Version, OS, Arch)
}
