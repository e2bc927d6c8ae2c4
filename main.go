package main

import (
	"runtime/debug"

	"github.com/marcus/courts/cmd"
)

// Version is injected with -ldflags "-X main.Version=v1.2.3". Builds without
// it report the module version or VCS revision instead.
var Version = "dev"

func effectiveVersion(v string) string {
	if v != "" && v != "dev" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	return versionFromBuild(v, info)
}

// versionFromBuild picks the tag recorded by "go install module@version",
// else "dev+<short revision>", with "-dirty" for modified trees.
func versionFromBuild(fallback string, info *debug.BuildInfo) string {
	if mv := info.Main.Version; mv != "" && mv != "(devel)" {
		return mv
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	rev := settings["vcs.revision"]
	if rev == "" {
		return fallback
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "dev+" + rev
	if settings["vcs.modified"] == "true" {
		v += "-dirty"
	}
	return v
}

func main() {
	cmd.SetVersion(effectiveVersion(Version))
	cmd.Execute()
}
