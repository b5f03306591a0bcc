package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

func TestResolveDirs(t *testing.T) {
	resetGlobalDirs()
	t.Cleanup(resetGlobalDirs)

	dirs, err := ResolveDirs()
	if err != nil {
		t.Fatalf("ResolveDirs failed: %v", err)
	}

	if dirs.Config == "" || dirs.Data == "" || dirs.State == "" {
		t.Errorf("dirs should not be empty: %+v", dirs)
	}
	if !strings.Contains(dirs.Config, AppName) {
		t.Errorf("Config dir should contain %q: %s", AppName, dirs.Config)
	}
}

func TestResolveDirsXDGOverride(t *testing.T) {
	resetGlobalDirs()
	t.Cleanup(resetGlobalDirs)

	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmpDir)

	dirs, err := ResolveDirs()
	if err != nil {
		t.Fatalf("ResolveDirs failed: %v", err)
	}

	expected := filepath.Join(tmpDir, AppName)
	if dirs.Data != expected {
		t.Errorf("XDG override failed: got %s, want %s", dirs.Data, expected)
	}
	if got := dirs.TranscriptPath(); got != filepath.Join(expected, "transcripts.db") {
		t.Errorf("TranscriptPath: got %s", got)
	}
}

func TestResolveProjectDirs(t *testing.T) {
	projectRoot := "/test/project"
	dirs := ResolveProjectDirs(projectRoot)

	if dirs.Root != filepath.Join(projectRoot, ".llcguide") {
		t.Errorf("Root: got %s", dirs.Root)
	}
	if dirs.Config != filepath.Join(projectRoot, ".llcguide", "config.yaml") {
		t.Errorf("Config: got %s", dirs.Config)
	}
	if dirs.Local != filepath.Join(projectRoot, ".llcguide", "local") {
		t.Errorf("Local: got %s", dirs.Local)
	}
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	if err := EnsureDir(testDir, 0755); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}

	info, err := os.Stat(testDir)
	if err != nil {
		t.Fatalf("Dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Created path is not a directory")
	}

	if err := EnsureDir(testDir, 0755); err != nil {
		t.Error("EnsureDir should be idempotent")
	}
}

func TestEnsureDirDefaultPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Permission test not applicable on Windows")
	}

	testDir := filepath.Join(t.TempDir(), "sensitive")
	if err := EnsureDir(testDir, 0); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}

	info, err := os.Stat(testDir)
	if err != nil {
		t.Fatalf("Dir not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("Permissions: got %o, want 0700", perm)
	}
}

func TestDirsHelperMethods(t *testing.T) {
	dirs := &Dirs{
		Config: "/config",
		Data:   "/data",
		State:  "/state",
	}

	if got := dirs.ConfigFile(); got != filepath.Join("/config", "config.yaml") {
		t.Errorf("ConfigFile: got %s", got)
	}
	if got := dirs.DataDir("a", "b"); got != filepath.Join("/data", "a", "b") {
		t.Errorf("DataDir: got %s", got)
	}
	if got := dirs.LogDir(); got != filepath.Join("/state", "logs") {
		t.Errorf("LogDir: got %s", got)
	}
}

func TestEnsureAll(t *testing.T) {
	tmpDir := t.TempDir()
	dirs := &Dirs{
		Config: filepath.Join(tmpDir, "config"),
		Data:   filepath.Join(tmpDir, "data"),
		State:  filepath.Join(tmpDir, "state"),
	}

	if err := dirs.EnsureAll(); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	for _, path := range []string{dirs.Config, dirs.Data, dirs.State, dirs.LogDir()} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Dir should exist: %s", path)
		}
	}
}

func resetGlobalDirs() {
	globalDirs = nil
	globalDirsOnce = sync.Once{}
	globalDirsErr = nil
}
