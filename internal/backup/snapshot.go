package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/liftlog/liftlog/internal/constants"
	"github.com/liftlog/liftlog/internal/logger"
)

// SnapshotInfo describes one database file backup.
type SnapshotInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Snapshotter creates and restores whole-database file backups next to
// the database, rotating old copies past the retention limit.
type Snapshotter struct {
	dbPath      string
	snapshotDir string
}

func NewSnapshotter(dbPath string) *Snapshotter {
	return &Snapshotter{
		dbPath:      dbPath,
		snapshotDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
	}
}

// Dir returns the snapshot directory path.
func (s *Snapshotter) Dir() string { return s.snapshotDir }

// Create writes a new timestamped snapshot of the database and rotates
// old ones.
func (s *Snapshotter) Create() (string, error) {
	return s.create(false)
}

func (s *Snapshotter) create(skipRotation bool) (string, error) {
	if err := os.MkdirAll(s.snapshotDir, 0700); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}
	if _, err := os.Stat(s.dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database does not exist: %s", s.dbPath)
	}

	name := constants.BackupFilePrefix +
		time.Now().Format(constants.ExportTimestampFormat) + constants.BackupFileSuffix
	path := filepath.Join(s.snapshotDir, name)

	// Second-resolution names can still collide under rapid calls.
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(s.snapshotDir, fmt.Sprintf("%s%s-%d%s",
			constants.BackupFilePrefix,
			time.Now().Format(constants.ExportTimestampFormat),
			counter, constants.BackupFileSuffix))
		if counter > 100 {
			return "", fmt.Errorf("could not generate a unique snapshot filename")
		}
	}

	if err := s.copyDatabase(path); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	if !skipRotation {
		if err := s.rotate(); err != nil {
			logger.Warn("failed to rotate old snapshots", "error", err)
		}
	}
	return path, nil
}

// copyDatabase produces a consistent copy via VACUUM INTO, falling back
// to a plain file copy when the running SQLite does not support it.
func (s *Snapshotter) copyDatabase(destPath string) error {
	src, err := sql.Open("sqlite", s.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open source database: %w", err)
	}
	defer src.Close()

	var count int
	if err := src.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears corrupted: %w", err)
	}

	if _, err := src.Exec("VACUUM INTO ?", destPath); err != nil {
		return copyFile(s.dbPath, destPath)
	}
	return nil
}

// List returns every snapshot, newest first.
func (s *Snapshotter) List() ([]SnapshotInfo, error) {
	if _, err := os.Stat(s.snapshotDir); os.IsNotExist(err) {
		return []SnapshotInfo{}, nil
	}
	entries, err := os.ReadDir(s.snapshotDir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}

	var snapshots []SnapshotInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, constants.BackupFilePrefix) ||
			!strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}

		stampStr := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)
		// Drop a collision counter if present.
		if parts := strings.Split(stampStr, "-"); len(parts) == 7 {
			stampStr = strings.Join(parts[:6], "-")
		}
		stamp, err := time.Parse(constants.ExportTimestampFormat, stampStr)
		if err != nil {
			continue
		}

		path := filepath.Join(s.snapshotDir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, SnapshotInfo{Path: path, Timestamp: stamp, Size: info.Size()})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

func (s *Snapshotter) rotate() error {
	snapshots, err := s.List()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(snapshots); i++ {
		if err := os.Remove(snapshots[i].Path); err != nil {
			return fmt.Errorf("remove old snapshot %s: %w", snapshots[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the database with a snapshot. The current database
// is snapshotted first, and the swap happens through a temp file and
// atomic rename. The store must be closed before restoring.
func (s *Snapshotter) Restore(snapshotPath string) error {
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		return fmt.Errorf("snapshot does not exist: %s", snapshotPath)
	}
	if err := verifySnapshot(snapshotPath); err != nil {
		return fmt.Errorf("snapshot is corrupted or invalid: %w", err)
	}

	if _, err := os.Stat(s.dbPath); err == nil {
		saved, err := s.create(true)
		if err != nil {
			return fmt.Errorf("snapshot current database before restore: %w", err)
		}
		logger.Info("saved current database before restore", "path", filepath.Base(saved))
	}

	tempPath := s.dbPath + ".restore.tmp"
	if err := copyFile(snapshotPath, tempPath); err != nil {
		return fmt.Errorf("copy snapshot: %w", err)
	}
	if err := os.Rename(tempPath, s.dbPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("failed to remove temp restore file", "path", tempPath, "error", removeErr)
		}
		return fmt.Errorf("restore database: %w", err)
	}
	return nil
}

func verifySnapshot(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
