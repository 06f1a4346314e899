package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/stats"
)

// isolateConfig keeps user config and environment out of command tests
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"POMOKAN_DB_PATH", "POMOKAN_DB_PATH_FILE", "POMOKAN_OUTPUT", "POMOKAN_RELOAD_WEBHOOKS", "POMOKAN_LOCK_TIMEOUT", "POMOKAN_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, root *cobra.Command, args ...string) string {
	t.Helper()
	out, err := execute(t, root, args...)
	if err != nil {
		t.Fatalf("%s %v failed: %v\n%s", root.Name(), args, err, out)
	}
	return out
}

func TestCommandWorkflow(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pomokan.db")
	snapPath := filepath.Join(dir, "state.json")

	out := mustExecute(t, rootAdmCmd, "--db", dbPath, "init")
	if !strings.Contains(out, "Initialized new database") {
		t.Errorf("unexpected init output: %s", out)
	}

	out = mustExecute(t, rootCmd, "--db", dbPath, "board", "add", "Work", "--pin", "--description", "day job")
	if !strings.Contains(out, "Created board Work") {
		t.Errorf("unexpected board add output: %s", out)
	}

	out = mustExecute(t, rootCmd, "--db", dbPath, "board", "ls", "--sort", "alpha", "--json")
	var boards []stats.BoardStats
	if err := json.Unmarshal([]byte(out), &boards); err != nil {
		t.Fatalf("board ls output is not JSON: %v\n%s", err, out)
	}
	if len(boards) != 1 || boards[0].Name != "Work" || !boards[0].Pin {
		t.Fatalf("unexpected boards: %+v", boards)
	}

	out = mustExecute(t, rootAdmCmd, "--db", dbPath, "state", "export", "--out", snapPath)
	if !strings.Contains(out, "Exported snapshot") || !strings.Contains(out, "sha256:") {
		t.Errorf("unexpected export output: %s", out)
	}

	out = mustExecute(t, rootAdmCmd, "state", "verify", snapPath)
	if !strings.Contains(out, snapPath) {
		t.Errorf("unexpected verify output: %s", out)
	}

	otherDB := filepath.Join(dir, "other.db")
	mustExecute(t, rootAdmCmd, "--db", otherDB, "init")
	out = mustExecute(t, rootAdmCmd, "--db", otherDB, "state", "import", "--from", snapPath)
	if !strings.Contains(out, "Imported snapshot") {
		t.Errorf("unexpected import output: %s", out)
	}

	mustExecute(t, rootAdmCmd, "--db", otherDB, "doctor")
}

func TestCommandExitCodes(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pomokan.db")
	mustExecute(t, rootAdmCmd, "--db", dbPath, "init")

	_, err := execute(t, rootCmd, "--db", dbPath, "board", "ls", "--sort", "recent", "--json=false")
	if code := ExitCode(err); code != 2 {
		t.Errorf("invalid sort mode exit code = %d, want 2", code)
	}

	_, err = execute(t, rootAdmCmd, "merge", "a.json", "b.json", "--dry-run=false", "--out", "")
	if code := ExitCode(err); code != 2 {
		t.Errorf("merge without --out exit code = %d, want 2", code)
	}

	_, err = execute(t, rootAdmCmd, "--db", filepath.Join(dir, "missing", "x.db"), "doctor", "--json")
	if code := ExitCode(err); code != 1 {
		t.Errorf("doctor on missing database exit code = %d, want 1", code)
	}
}
