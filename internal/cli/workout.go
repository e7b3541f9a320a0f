package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/liftlog/liftlog/internal/models"
)

type WorkoutStartCmd struct {
	Name string `arg:"" optional:"" help:"Workout name." default:"Workout"`
}

func (c *WorkoutStartCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	w, err := ctx.Workouts.StartNewWorkout(ctx.Ctx, c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Started workout: %s (ID: %d)\n", w.Name, w.ID)
	return nil
}

type WorkoutAddCmd struct {
	ExerciseID   int64   `arg:"" help:"Exercise ID to add to the active workout."`
	Sets         int     `short:"s" help:"Target sets." default:"3"`
	Reps         int     `short:"r" help:"Target reps." default:"10"`
	TargetWeight float64 `short:"w" help:"Target weight."`
}

func (c *WorkoutAddCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	ctx.attachSession()
	if err := ctx.Workouts.AddExerciseToWorkout(ctx.Ctx, c.ExerciseID, c.Sets, c.Reps, c.TargetWeight); err != nil {
		return err
	}
	fmt.Printf("Added exercise %d (%dx%d)\n", c.ExerciseID, c.Sets, c.Reps)
	return nil
}

type WorkoutLogCmd struct {
	ExerciseID int64   `arg:"" help:"Exercise ID."`
	Reps       int     `arg:"" help:"Reps completed."`
	Weight     float64 `arg:"" help:"Weight used."`
	RPE        int     `short:"r" help:"Rating of perceived exertion (1-10)."`
	Warmup     bool    `short:"W" help:"Mark as a warmup set."`
	Notes      string  `short:"n" help:"Set notes."`
}

func (c *WorkoutLogCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	ctx.attachSession()

	set := models.Set{Reps: c.Reps, Weight: c.Weight, IsWarmup: c.Warmup, Notes: c.Notes}
	if c.RPE > 0 {
		set.RPE = &c.RPE
	}
	w, err := ctx.Workouts.LogSet(ctx.Ctx, c.ExerciseID, set)
	if err != nil {
		return err
	}
	fmt.Printf("Logged %dx%.1f  (workout totals: %d sets, %.1f volume)\n",
		c.Reps, c.Weight, w.TotalSets, w.TotalVolume)
	return nil
}

type WorkoutStatusCmd struct{}

func (c *WorkoutStatusCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	ctx.attachSession()

	w, err := ctx.Workouts.ActiveWorkout(ctx.Ctx)
	if err != nil {
		return err
	}

	printTitle(fmt.Sprintf("%s (%s)", w.Name, w.Status))
	fmt.Printf("started %s\n\n", w.StartTime.Local().Format("15:04"))

	rows := make([][]string, 0, len(w.Exercises))
	for _, we := range w.Exercises {
		done := "in progress"
		if we.IsCompleted {
			done = "done"
		}
		rows = append(rows, []string{
			strconv.FormatInt(we.ExerciseID, 10),
			fmt.Sprintf("%d/%d sets", len(we.Sets), we.TargetSets),
			fmt.Sprintf("rest %ds", we.RestTimeSec),
			done,
		})
	}
	printTable([]string{"EXERCISE", "PROGRESS", "REST", "STATE"}, rows)
	fmt.Printf("\ntotals: %d sets, %d reps, %.1f volume\n", w.TotalSets, w.TotalReps, w.TotalVolume)
	return nil
}

type WorkoutPauseCmd struct{}

func (c *WorkoutPauseCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	ctx.attachSession()
	if err := ctx.Workouts.PauseWorkout(ctx.Ctx); err != nil {
		return err
	}
	fmt.Println("Workout paused")
	return nil
}

type WorkoutResumeCmd struct{}

func (c *WorkoutResumeCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	ctx.attachSession()
	if err := ctx.Workouts.ResumeWorkout(ctx.Ctx); err != nil {
		return err
	}
	fmt.Println("Workout resumed")
	return nil
}

type WorkoutCompleteCmd struct{}

func (c *WorkoutCompleteCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	ctx.attachSession()
	w, err := ctx.Workouts.CompleteWorkout(ctx.Ctx)
	if err != nil {
		return err
	}
	dur := time.Duration(0)
	if w.EndTime != nil {
		dur = w.EndTime.Sub(w.StartTime).Round(time.Minute)
	}
	fmt.Printf("Completed %s: %d sets, %.1f volume in %s\n",
		w.Name, w.TotalSets, w.TotalVolume, dur)
	return nil
}

type WorkoutCancelCmd struct{}

func (c *WorkoutCancelCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	ctx.attachSession()
	if err := ctx.Workouts.CancelWorkout(ctx.Ctx); err != nil {
		return err
	}
	fmt.Println("Workout cancelled")
	return nil
}

type WorkoutHistoryCmd struct {
	Limit int `short:"n" help:"Number of workouts to show." default:"15"`
}

func (c *WorkoutHistoryCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	workouts, err := ctx.Workouts.GetWorkoutHistory(ctx.Ctx, c.Limit)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(workouts))
	for _, w := range workouts {
		rows = append(rows, []string{
			strconv.FormatInt(w.ID, 10),
			w.StartTime.Local().Format("2006-01-02"),
			w.Name,
			string(w.Status),
			strconv.Itoa(w.TotalSets),
			fmt.Sprintf("%.1f", w.TotalVolume),
		})
	}
	printTable([]string{"ID", "DATE", "NAME", "STATUS", "SETS", "VOLUME"}, rows)
	return nil
}
