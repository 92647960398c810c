package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/buildinfo"
	"github.com/aidanlsb/ifcq/internal/ui"
)

const (
	defaultModulePath = "github.com/aidanlsb/ifcq"
	develVersion      = "devel"
)

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show ifcq version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()
		short, _ := cmd.Flags().GetBool("short")

		switch {
		case jsonOutput:
			outputSuccess(info, nil)
		case short:
			fmt.Println(info.Version)
		default:
			fmt.Printf("ifcq %s\n", info.Version)
			t := ui.NewTable(2)
			t.AddRow(ui.Hint("module"), info.ModulePath)
			if info.Commit != "" {
				commit := info.Commit
				if info.Modified {
					commit += " (modified)"
				}
				t.AddRow(ui.Hint("commit"), commit)
			}
			if info.CommitTime != "" {
				t.AddRow(ui.Hint("built"), info.CommitTime)
			}
			t.AddRow(ui.Hint("go"), info.GoVersion)
			t.AddRow(ui.Hint("platform"), info.Platform)
			fmt.Print(t.String())
		}
		return nil
	},
}

// currentVersionInfo combines the module build info with link-time values.
// Build info wins; ldflags fill what it lacks.
func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    develVersion,
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
	}
	goos, goarch := runtime.GOOS, runtime.GOARCH

	if bi, ok := readBuildInfo(); ok && bi != nil {
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		info.Version = normalizeVersion(bi.Main.Version)
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}

		settings := make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		if v := settings["GOOS"]; v != "" {
			goos = v
		}
		if v := settings["GOARCH"]; v != "" {
			goarch = v
		}
		info.Commit = settings["vcs.revision"]
		info.CommitTime = settings["vcs.time"]
		info.Modified = strings.EqualFold(settings["vcs.modified"], "true")
	}
	info.Platform = goos + "/" + goarch

	if info.Version == develVersion && buildinfo.Version != "" {
		info.Version = normalizeVersion(buildinfo.Version)
	}
	if info.Commit == "" {
		info.Commit = buildinfo.Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = buildinfo.Date
	}
	return info
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return develVersion
	}
	return version
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version")
	rootCmd.AddCommand(versionCmd)
}
