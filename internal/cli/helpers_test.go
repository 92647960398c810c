package cli

import (
	"path/filepath"
	"testing"

	"github.com/aidanlsb/ifcq/internal/config"
	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/lastquery"
)

func withConfig(t *testing.T, c *config.Config, path string) {
	t.Helper()
	prevCfg, prevPath := cfg, resolvedConfigPath
	t.Cleanup(func() { cfg, resolvedConfigPath = prevCfg, prevPath })
	cfg, resolvedConfigPath = c, path
}

func TestDumpTargets(t *testing.T) {
	cfgDir := t.TempDir()
	withConfig(t, &config.Config{Models: map[string]string{
		"house": "exports/house.ifc.json",
		"shed":  "/data/shed.yaml",
	}}, filepath.Join(cfgDir, "config.toml"))
	opts := extract.Options{Workers: 4}

	builds, err := dumpTargets([]string{"a.json", "b.json"}, "", opts)
	if err != nil || len(builds) != 2 || builds[0].Path != "a.json" || builds[1].ModelID != "" {
		t.Errorf("explicit dumps = %+v, %v", builds, err)
	}

	builds, err = dumpTargets([]string{"a.json"}, "custom", opts)
	if err != nil || len(builds) != 1 || builds[0].ModelID != "custom" || builds[0].Options.Workers != 4 {
		t.Errorf("single dump with --model = %+v, %v", builds, err)
	}

	if _, err := dumpTargets([]string{"a.json", "b.json"}, "custom", opts); err == nil {
		t.Error("expected error for --model with two dumps")
	}

	builds, err = dumpTargets(nil, "", opts)
	if err != nil || len(builds) != 2 {
		t.Fatalf("configured = %+v, %v", builds, err)
	}
	if builds[0].ModelID != "house" || builds[0].Path != filepath.Join(cfgDir, "exports", "house.ifc.json") {
		t.Errorf("relative dump = %+v", builds[0])
	}
	if builds[1].Path != "/data/shed.yaml" {
		t.Errorf("absolute dump = %+v", builds[1])
	}

	builds, err = dumpTargets(nil, "shed", opts)
	if err != nil || len(builds) != 1 || builds[0].ModelID != "shed" {
		t.Errorf("configured with --model = %+v, %v", builds, err)
	}

	if _, err := dumpTargets(nil, "office", opts); err == nil {
		t.Error("expected error for unconfigured model")
	}

	withConfig(t, &config.Config{}, "")
	if _, err := dumpTargets(nil, "", opts); err == nil {
		t.Error("expected error with nothing to index")
	}
}

func TestRerunCommand(t *testing.T) {
	tests := []struct {
		name string
		lq   lastquery.LastQuery
		want string
	}{
		{
			name: "single model",
			lq:   lastquery.LastQuery{Query: "(['Span' > '4'])", Model: "small-house"},
			want: `ifcq query '(['\''Span'\'' > '\''4'\''])' --model small-house`,
		},
		{
			name: "all models",
			lq:   lastquery.LastQuery{Query: "(['Span' > '4'])"},
			want: `ifcq query '(['\''Span'\'' > '\''4'\''])' --all`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rerunCommand(&tt.lq); got != tt.want {
				t.Errorf("rerunCommand() = %s, want %s", got, tt.want)
			}
		})
	}
}
