package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// chdir switches into dir for the rest of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldCwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldCwd) })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"POMOKAN_DB_PATH", "POMOKAN_DB_PATH_FILE", "POMOKAN_LOG_LEVEL", "POMOKAN_OUTPUT", "POMOKAN_RELOAD_WEBHOOKS", "POMOKAN_LOCK_TIMEOUT"} {
		t.Setenv(k, "")
	}
}

func TestFindEnvLocal(t *testing.T) {
	tests := []struct {
		name  string
		files []string // directories (relative to root) holding a .env.local
		cwd   string
		want  string
	}{
		{name: "current dir", files: []string{"."}, cwd: ".", want: "."},
		{name: "parent dir", files: []string{"."}, cwd: "child", want: "."},
		{name: "grandparent dir", files: []string{"."}, cwd: "parent/child", want: "."},
		{name: "closest wins", files: []string{".", "parent"}, cwd: "parent/child", want: "parent"},
		{name: "not found", cwd: "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			cwd := filepath.Join(root, tt.cwd)
			if err := os.MkdirAll(cwd, 0755); err != nil {
				t.Fatal(err)
			}
			for _, dir := range tt.files {
				if err := os.WriteFile(filepath.Join(root, dir, ".env.local"), []byte("TEST=value"), 0644); err != nil {
					t.Fatal(err)
				}
			}
			chdir(t, cwd)

			result := findEnvLocal()
			if tt.want == "" {
				if result != "" {
					t.Errorf("expected no .env.local, got %s", result)
				}
				return
			}
			// Resolve symlinks for comparison (macOS /var -> /private/var)
			expected, _ := filepath.EvalSymlinks(filepath.Join(root, tt.want, ".env.local"))
			got, _ := filepath.EvalSymlinks(result)
			if got != expected {
				t.Errorf("expected %s, got %s", expected, got)
			}
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())

	cfgDir := filepath.Join(home, ".config", "pomokan")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	yamlCfg := "db_path: /from/yaml.db\nlog_level: debug\nreload_webhooks:\n  - http://localhost:1/a\nlock_timeout: 2s\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(yamlCfg), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DBPath != "/from/yaml.db" || !cfg.Debug() || cfg.LockTimeout != 2*time.Second {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.ReloadWebhooks, []string{"http://localhost:1/a"}) {
		t.Errorf("ReloadWebhooks = %v", cfg.ReloadWebhooks)
	}

	t.Setenv("POMOKAN_DB_PATH", "/from/env.db")
	t.Setenv("POMOKAN_RELOAD_WEBHOOKS", "http://a.example, ,http://b.example")
	t.Setenv("POMOKAN_LOCK_TIMEOUT", "250ms")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Errorf("DBPath = %s, want env override", cfg.DBPath)
	}
	if !reflect.DeepEqual(cfg.ReloadWebhooks, []string{"http://a.example", "http://b.example"}) {
		t.Errorf("ReloadWebhooks = %v", cfg.ReloadWebhooks)
	}
	if cfg.LockTimeout != 250*time.Millisecond {
		t.Errorf("LockTimeout = %v", cfg.LockTimeout)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	project := t.TempDir()
	chdir(t, project)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if want := filepath.Join(home, ".local", "share", "pomokan", "pomokan.db"); cfg.DBPath != want {
		t.Errorf("DBPath = %s, want %s", cfg.DBPath, want)
	}
	if cfg.LogLevel != "info" || cfg.Output != "table" || cfg.LockTimeout != DefaultLockTimeout {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	if err := os.MkdirAll(filepath.Join(project, ".pomokan"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ProjectDBPath), nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DBPath != ProjectDBPath {
		t.Errorf("DBPath = %s, want project-local %s", cfg.DBPath, ProjectDBPath)
	}
}

func TestLoad_DBPathFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	secret := filepath.Join(t.TempDir(), "db_path")
	if err := os.WriteFile(secret, []byte("/from/file.db\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POMOKAN_DB_PATH_FILE", secret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DBPath != "/from/file.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoad_InvalidLockTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("POMOKAN_LOCK_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid lock timeout")
	}
}
