package buildinfo

import (
	"runtime"
	"runtime/debug"
	"time"
)

const unset = "unknown"

// Set with -ldflags "-X". Commit and BuildTime fall back to the VCS stamp
// the go tool embeds when they are left unset.
var (
	Version   = "dev"
	Commit    = unset
	BuildTime = unset
	GoVersion = runtime.Version()
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// Get returns the build information.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime, GoVersion: GoVersion}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = withVCS(info, bi.Settings)
	}
	return info
}

// String formats Get as "v1.2.3 (abc123def456) built at 2026-01-02T03:04:05Z".
// A dirty work tree adds "+dirty" to the commit.
func String() string {
	info := Get()
	commit := info.Commit
	if info.Modified {
		commit += "+dirty"
	}
	return info.Version + " (" + commit + ") built at " + info.BuildTime
}

func withVCS(info Info, settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unset && s.Value != "" {
				info.Commit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil && info.BuildTime == unset {
				info.BuildTime = t.UTC().Format(time.RFC3339)
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}
