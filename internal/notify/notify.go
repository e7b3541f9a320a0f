// Package notify delivers sync and update broadcasts to a companion
// tray app over its local webhook. The tray advertises itself through
// a lockfile (port|pid|secret); the pid is validated against the
// process table before anything is sent. When no tray is running the
// gateway falls back to bus-only delivery.
package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/liftlog/liftlog/internal/constants"
	"github.com/liftlog/liftlog/internal/logger"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// ErrTrayNotRunning means no companion app is available to receive the
// broadcast.
var ErrTrayNotRunning = errors.New("liftlog tray is not running")

type Notifier struct{}

// Payload is the webhook body the tray app accepts.
type Payload struct {
	Kind       string `json:"kind"`
	Data       any    `json:"data,omitempty"`
	DurationMs uint32 `json:"duration_ms"`
}

func New() *Notifier {
	return &Notifier{}
}

// Broadcast sends one event to the tray webhook. It satisfies the
// offline gateway's Broadcaster interface.
func (n *Notifier) Broadcast(kind string, data any) error {
	dir, err := TrayConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := readLockfile(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	return post(port, secret, Payload{
		Kind:       kind,
		Data:       data,
		DurationMs: constants.NotificationDurationMs,
	})
}

// BroadcastQuietly is Broadcast for callers that treat an absent tray
// as normal; only unexpected failures are logged.
func (n *Notifier) BroadcastQuietly(kind string, data any) {
	if err := n.Broadcast(kind, data); err != nil && !errors.Is(err, ErrTrayNotRunning) {
		logger.Warn("tray broadcast failed", "kind", kind, "error", err)
	}
}

// TrayConfigDir resolves the tray app's configuration directory,
// honoring a custom lockfile directory from its settings file.
func TrayConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}

	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	settingsPath := filepath.Join(trayDir, "settings.json")
	if data, err := os.ReadFile(settingsPath); err == nil {
		var settings struct {
			Settings struct {
				LockfileDir *string `json:"lockfile_dir"`
			} `json:"settings"`
		}
		if err := json.Unmarshal(data, &settings); err == nil {
			if settings.Settings.LockfileDir != nil && *settings.Settings.LockfileDir != "" {
				return *settings.Settings.LockfileDir, nil
			}
		}
	}
	return trayDir, nil
}

// readLockfile parses and validates the tray lockfile: port|pid|secret,
// with the pid checked against a live liftlog-tray process.
func readLockfile(path string) (string, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("tray lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", errors.New("port in tray lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in tray lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process id in tray lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in tray lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), "liftlog-tray") {
		return "", "", fmt.Errorf("process %d is not liftlog-tray (is %s)", pid, process.Executable())
	}

	return port, secret, nil
}

func post(port, secret string, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("http://127.0.0.1:%s", port), bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Liftlog-Secret", secret)

	res, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("tray broadcast failed with status %d: %s", res.StatusCode, string(body))
}
