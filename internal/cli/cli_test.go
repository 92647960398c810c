package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	outputCh := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	return <-outputCh
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since cobra keeps flag values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// project is a temporary project directory with its own config path.
type project struct {
	t      *testing.T
	dir    string
	config string
}

func newProject(t *testing.T) *project {
	t.Helper()
	dir := t.TempDir()
	return &project{t: t, dir: dir, config: filepath.Join(dir, "config.toml")}
}

// run executes the CLI with --json against the project and returns stdout
// and the command error.
func (p *project) run(args ...string) (string, error) {
	p.t.Helper()
	resetFlags(rootCmd)
	t := p.t
	t.Cleanup(func() { resetFlags(rootCmd) })

	var err error
	out := captureStdout(t, func() {
		rootCmd.SetArgs(append([]string{"--dir", p.dir, "--config", p.config, "--log-level", "error", "--json"}, args...))
		err = rootCmd.Execute()
	})
	return out, err
}

// mustRun runs the CLI and decodes the JSON envelope.
func (p *project) mustRun(args ...string) Response {
	p.t.Helper()
	out, err := p.run(args...)
	if err != nil {
		p.t.Fatalf("ifcq %s: %v", strings.Join(args, " "), err)
	}
	var resp Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		p.t.Fatalf("ifcq %s: invalid JSON %q: %v", strings.Join(args, " "), out, err)
	}
	return resp
}

// decode re-encodes resp.Data into v.
func decode(t *testing.T, resp Response, v interface{}) {
	t.Helper()
	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "extract", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func (p *project) indexHouse() {
	p.t.Helper()
	resp := p.mustRun("index", fixture(p.t, "house.ifc.json"))
	if !resp.OK {
		p.t.Fatalf("index failed: %+v", resp.Error)
	}
}
