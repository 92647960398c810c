package cli

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/aidanlsb/ifcq/internal/buildinfo"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	prev := readBuildInfo
	t.Cleanup(func() { readBuildInfo = prev })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestCurrentVersionInfoFromBuildInfo(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		GoVersion: "go1.23.4",
		Main:      debug.Module{Path: "github.com/aidanlsb/ifcq", Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-09-30T08:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "GOOS", Value: "windows"},
			{Key: "GOARCH", Value: "amd64"},
		},
	})

	info := currentVersionInfo()
	want := versionInfo{
		Version:    "v0.4.1",
		ModulePath: "github.com/aidanlsb/ifcq",
		Commit:     "abc123",
		CommitTime: "2026-09-30T08:00:00Z",
		Modified:   true,
		GoVersion:  "go1.23.4",
		Platform:   "windows/amd64",
	}
	if info != want {
		t.Fatalf("info = %+v\nwant %+v", info, want)
	}
}

func TestCurrentVersionInfoFallbacks(t *testing.T) {
	stubBuildInfo(t, nil)

	info := currentVersionInfo()
	if info.Version != develVersion || info.ModulePath != defaultModulePath {
		t.Errorf("version/module = %q %q", info.Version, info.ModulePath)
	}
	if info.GoVersion != runtime.Version() || info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("runtime = %q %q", info.GoVersion, info.Platform)
	}

	prevVersion, prevCommit := buildinfo.Version, buildinfo.Commit
	t.Cleanup(func() { buildinfo.Version, buildinfo.Commit = prevVersion, prevCommit })
	buildinfo.Version, buildinfo.Commit = "v1.0.0", "feedface"

	info = currentVersionInfo()
	if info.Version != "v1.0.0" || info.Commit != "feedface" {
		t.Errorf("ldflags fallback = %+v", info)
	}
}

func TestNormalizeVersion(t *testing.T) {
	for in, want := range map[string]string{"": develVersion, "(devel)": develVersion, "v2.0.0": "v2.0.0"} {
		if got := normalizeVersion(in); got != want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVersionCommandJSONOutput(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Path: "github.com/aidanlsb/ifcq", Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "deadbeef"}},
	})
	prevJSON := jsonOutput
	t.Cleanup(func() { jsonOutput = prevJSON })
	jsonOutput = true

	out := captureStdout(t, func() {
		if err := versionCmd.RunE(versionCmd, nil); err != nil {
			t.Fatalf("versionCmd.RunE: %v", err)
		}
	})

	var resp struct {
		OK   bool        `json:"ok"`
		Data versionInfo `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("expected JSON output, got parse error: %v; out=%s", err, out)
	}
	if !resp.OK || resp.Data.Version != develVersion || resp.Data.Commit != "deadbeef" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestVersionCommandText(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Path: "github.com/aidanlsb/ifcq", Version: "v0.4.1"}})
	prevJSON := jsonOutput
	t.Cleanup(func() { jsonOutput = prevJSON })
	jsonOutput = false

	out := captureStdout(t, func() {
		if err := versionCmd.RunE(versionCmd, nil); err != nil {
			t.Fatalf("versionCmd.RunE: %v", err)
		}
	})
	if !strings.HasPrefix(out, "ifcq v0.4.1\n") || !strings.Contains(out, "github.com/aidanlsb/ifcq") {
		t.Errorf("output = %q", out)
	}
}
