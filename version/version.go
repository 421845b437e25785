package version

import (
	"runtime"
	"runtime/debug"
)

// BuildVersion is intended to be set at build time via -ldflags; it falls
// back to VCS build info when unset.
var BuildVersion = "dev"

type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha,omitempty"`
	GoVersion string `json:"go_version"`
	GOOS      string `json:"go_os"`
	GOARCH    string `json:"go_arch"`
}

func Get(service string) Info {
	gitSHA := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				gitSHA = s.Value
			}
		}
	}
	return Info{
		Service:   service,
		Version:   BuildVersion,
		GitSHA:    gitSHA,
		GoVersion: runtime.Version(),
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
	}
}
