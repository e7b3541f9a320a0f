package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/liftlog/liftlog/internal/backup"
	"github.com/liftlog/liftlog/internal/cli"
	"github.com/liftlog/liftlog/internal/constants"
	"github.com/liftlog/liftlog/internal/events"
	"github.com/liftlog/liftlog/internal/logger"
	"github.com/liftlog/liftlog/internal/manager"
	"github.com/liftlog/liftlog/internal/notify"
	"github.com/liftlog/liftlog/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Data    string `help:"Database file path." type:"path" default:"~/.config/liftlog/liftlog.db" env:"LIFTLOG_DATA"`
	Debug   bool   `help:"Enable debug logging." env:"LIFTLOG_DEBUG"`

	Init   cli.InitCmd   `cmd:"" help:"Initialize liftlog storage."`
	Doctor cli.DoctorCmd `cmd:"" help:"Check database and companion health."`

	Exercise struct {
		Add    cli.ExerciseAddCmd    `cmd:"" help:"Add a custom exercise."`
		List   cli.ExerciseListCmd   `cmd:"" help:"List exercises."`
		Search cli.ExerciseSearchCmd `cmd:"" help:"Search exercises by name."`
		Show   cli.ExerciseShowCmd   `cmd:"" help:"Show an exercise with stats."`
		Delete cli.ExerciseDeleteCmd `cmd:"" help:"Delete a custom exercise."`
	} `cmd:"" help:"Manage the exercise library."`

	Workout struct {
		Start    cli.WorkoutStartCmd    `cmd:"" help:"Start a new workout session."`
		Add      cli.WorkoutAddCmd      `cmd:"" help:"Add an exercise to the active workout."`
		Log      cli.WorkoutLogCmd      `cmd:"" help:"Log a completed set."`
		Status   cli.WorkoutStatusCmd   `cmd:"" help:"Show the active workout."`
		Pause    cli.WorkoutPauseCmd    `cmd:"" help:"Pause the active workout."`
		Resume   cli.WorkoutResumeCmd   `cmd:"" help:"Resume a paused workout."`
		Complete cli.WorkoutCompleteCmd `cmd:"" help:"Complete the active workout."`
		Cancel   cli.WorkoutCancelCmd   `cmd:"" help:"Cancel the active workout."`
		History  cli.WorkoutHistoryCmd  `cmd:"" help:"List past workouts."`
	} `cmd:"" help:"Run workout sessions."`

	Plan struct {
		Create   cli.PlanCreateCmd   `cmd:"" help:"Create a workout plan."`
		List     cli.PlanListCmd     `cmd:"" help:"List plans."`
		Show     cli.PlanShowCmd     `cmd:"" help:"Show a plan with estimates."`
		Schedule cli.PlanScheduleCmd `cmd:"" help:"Attach a weekly schedule."`
		Start    cli.PlanStartCmd    `cmd:"" help:"Start a workout from a plan."`
		Share    cli.PlanShareCmd    `cmd:"" help:"Render a shareable plan."`
		Delete   cli.PlanDeleteCmd   `cmd:"" help:"Delete a plan."`
	} `cmd:"" help:"Manage workout plans."`

	Progress struct {
		Add  cli.ProgressAddCmd  `cmd:"" help:"Record a goal, measurement or achievement."`
		List cli.ProgressListCmd `cmd:"" help:"List progress records."`
	} `cmd:"" help:"Track goals and measurements."`

	Export  cli.ExportCmd  `cmd:"" help:"Export all data (json|csv|txt)."`
	Import  cli.ImportCmd  `cmd:"" help:"Import a previous export."`
	Cleanup cli.CleanupCmd `cmd:"" help:"Delete old workouts and orphaned data."`
	Reset   cli.ResetCmd   `cmd:"" help:"Erase all data."`
	Usage   cli.UsageCmd   `cmd:"" help:"Show storage usage."`

	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a database file backup."`
		List    cli.BackupListCmd    `cmd:"" help:"List backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database file backups."`

	Sync struct {
		Status  cli.SyncStatusCmd  `cmd:"" help:"Show the pending sync queue."`
		Replay  cli.SyncReplayCmd  `cmd:"" help:"Replay queued mutations."`
		Install cli.SyncInstallCmd `cmd:"" help:"Pre-cache the app shell for offline use."`
	} `cmd:"" help:"Inspect and drain the offline sync queue."`
}

func main() {
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Offline-first workout tracker"),
		kong.UsageOnError(),
		kong.Vars{"version": constants.Version},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, DataDir: filepath.Dir(CLI.Data)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}

	store := storage.New(CLI.Data)
	defer store.Close()

	bus := events.NewBus()
	workouts := manager.NewWorkoutManager(store, bus)

	appCtx := &cli.Context{
		Ctx:         context.Background(),
		Store:       store,
		Bus:         bus,
		Exercises:   manager.NewExerciseManager(store),
		Workouts:    workouts,
		Plans:       manager.NewPlanManager(store, workouts),
		Engine:      backup.NewEngine(store),
		Snapshots:   backup.NewSnapshotter(CLI.Data),
		Notifier:    notify.New(),
		CacheDBPath: filepath.Join(filepath.Dir(CLI.Data), "liftlog-cache.db"),
	}

	if err := kctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
