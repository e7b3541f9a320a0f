package constants

import "time"

const (
	AppName         = "liftlog"
	Version         = "v0.3.0"
	DefaultDataPath = "~/.config/liftlog/liftlog.db"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// ExportTimestampFormat stamps export filenames: prefix-YYYY-MM-DD-HH-MM-SS.ext
	ExportTimestampFormat = "2006-01-02-15-04-05"

	// MaxImportBytes caps the size of an import file.
	MaxImportBytes = 10 << 20 // 10 MiB

	// Default rest times applied when adding an exercise to a workout.
	RestCardioSec   = 30
	RestHeavySec    = 180 // advanced exercises and leg work
	RestCoreSec     = 60
	RestDefaultSec  = 90
	RestTimerPeriod = time.Second

	// Set logging bounds.
	MinReps   = 1
	MaxReps   = 1000
	MinWeight = 0.0
	MaxWeight = 10000.0

	// Snapshot backup constants.
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "liftlog-"
	BackupFileSuffix = ".db"

	// Offline cache generation tags. Bumping a version retires the
	// previous generation during activation.
	CacheVersion     = "v2"
	StaticCacheName  = "liftlog-static-" + CacheVersion
	DynamicCacheName = "liftlog-dynamic-" + CacheVersion
	ImageCacheName   = "liftlog-images-" + CacheVersion
	OfflineFallback  = "/offline.html"

	// Notify constants (client broadcast channel).
	NotifierLockfileName   = "liftlog-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.liftlog.app"
)
