package main

import (
	"runtime/debug"
	"testing"
)

func TestEffectiveVersionPrefersInjected(t *testing.T) {
	if got := effectiveVersion("v1.4.0"); got != "v1.4.0" {
		t.Errorf("effectiveVersion = %q, want v1.4.0", got)
	}
}

func TestVersionFromBuild(t *testing.T) {
	tests := []struct {
		name     string
		main     string
		settings map[string]string
		want     string
	}{
		{"module tag", "v0.3.1", nil, "v0.3.1"},
		{"no vcs", "(devel)", nil, "dev"},
		{"clean revision", "(devel)", map[string]string{"vcs.revision": "0123456789abcdef"}, "dev+0123456789ab"},
		{"dirty revision", "", map[string]string{"vcs.revision": "abc123", "vcs.modified": "true"}, "dev+abc123-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &debug.BuildInfo{Main: debug.Module{Version: tt.main}}
			for k, v := range tt.settings {
				info.Settings = append(info.Settings, debug.BuildSetting{Key: k, Value: v})
			}
			if got := versionFromBuild("dev", info); got != tt.want {
				t.Errorf("versionFromBuild = %q, want %q", got, tt.want)
			}
		})
	}
}
