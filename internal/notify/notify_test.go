package notify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-ps"
)

type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 0 }
func (p fakeProcess) Executable() string { return p.executable }

func withFakeProcess(t *testing.T, proc ps.Process, err error) {
	t.Helper()
	orig := findProcessFunc
	findProcessFunc = func(int) (ps.Process, error) { return proc, err }
	t.Cleanup(func() { findProcessFunc = orig })
}

func writeLockfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lockfile")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write lockfile: %v", err)
	}
	return path
}

func TestReadLockfile(t *testing.T) {
	withFakeProcess(t, fakeProcess{pid: 1234, executable: "liftlog-tray"}, nil)

	path := writeLockfile(t, "8731|1234|s3cret\n")
	port, secret, err := readLockfile(path)
	if err != nil {
		t.Fatalf("readLockfile failed: %v", err)
	}
	if port != "8731" || secret != "s3cret" {
		t.Errorf("parsed %q/%q", port, secret)
	}
}

func TestReadLockfileMissing(t *testing.T) {
	_, _, err := readLockfile(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("expected ErrTrayNotRunning, got %v", err)
	}
}

func TestReadLockfileMalformed(t *testing.T) {
	withFakeProcess(t, fakeProcess{pid: 1234, executable: "liftlog-tray"}, nil)

	cases := map[string]string{
		"too few fields": "8731|1234",
		"empty port":     "|1234|secret",
		"bad port":       "notaport|1234|secret",
		"port range":     "99999|1234|secret",
		"bad pid":        "8731|notapid|secret",
		"empty secret":   "8731|1234| ",
	}
	for name, content := range cases {
		path := writeLockfile(t, content)
		if _, _, err := readLockfile(path); err == nil {
			t.Errorf("%s: lockfile accepted", name)
		}
	}
}

func TestReadLockfileStaleProcess(t *testing.T) {
	// The pid is valid but no such process exists anymore.
	withFakeProcess(t, nil, nil)
	path := writeLockfile(t, "8731|1234|secret")
	if _, _, err := readLockfile(path); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("expected ErrTrayNotRunning, got %v", err)
	}

	// The pid was recycled by an unrelated process.
	withFakeProcess(t, fakeProcess{pid: 1234, executable: "some-other-app"}, nil)
	_, _, err := readLockfile(path)
	if err == nil || !strings.Contains(err.Error(), "some-other-app") {
		t.Errorf("recycled pid accepted: %v", err)
	}
}

func TestTrayConfigDir(t *testing.T) {
	configRoot := t.TempDir()
	orig := userConfigDirFunc
	userConfigDirFunc = func() (string, error) { return configRoot, nil }
	t.Cleanup(func() { userConfigDirFunc = orig })

	dir, err := TrayConfigDir()
	if err != nil {
		t.Fatalf("TrayConfigDir failed: %v", err)
	}
	if filepath.Dir(dir) != configRoot {
		t.Errorf("dir = %q, want under %q", dir, configRoot)
	}

	// A settings file can redirect the lockfile directory.
	custom := filepath.Join(configRoot, "custom-lockfiles")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	settings := `{"settings": {"lockfile_dir": "` + custom + `"}}`
	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(settings), 0600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	dir, err = TrayConfigDir()
	if err != nil {
		t.Fatalf("TrayConfigDir failed: %v", err)
	}
	if dir != custom {
		t.Errorf("dir = %q, want %q", dir, custom)
	}
}

func TestBroadcastNoTray(t *testing.T) {
	configRoot := t.TempDir()
	origDir := userConfigDirFunc
	userConfigDirFunc = func() (string, error) { return configRoot, nil }
	t.Cleanup(func() { userConfigDirFunc = origDir })

	err := New().Broadcast("sync.success", map[string]string{"id": "x"})
	if !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("expected ErrTrayNotRunning, got %v", err)
	}

	// Quiet variant swallows the absent-tray case.
	New().BroadcastQuietly("sync.success", nil)
}
