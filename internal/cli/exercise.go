package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

type ExerciseAddCmd struct {
	Name         string `arg:"" help:"Exercise name."`
	Category     string `short:"c" help:"Category (chest|back|shoulders|arms|legs|core|cardio|full-body)." required:""`
	Equipment    string `short:"e" help:"Equipment (barbell|dumbbell|machine|cable|bodyweight|kettlebell|band|other)." default:"other"`
	Difficulty   string `short:"d" help:"Difficulty (beginner|intermediate|advanced)." default:"beginner"`
	MuscleGroups string `short:"m" help:"Comma-separated muscle groups." required:""`
	Instructions string `short:"i" help:"Instructions text."`
}

func (c *ExerciseAddCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	var groups []string
	for _, g := range strings.Split(c.MuscleGroups, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}

	ex := &models.Exercise{
		Name:         c.Name,
		Category:     models.Category(c.Category),
		Equipment:    models.Equipment(c.Equipment),
		Difficulty:   models.Difficulty(c.Difficulty),
		MuscleGroups: groups,
		Instructions: c.Instructions,
	}
	id, err := ctx.Exercises.AddCustomExercise(ctx.Ctx, ex)
	if err != nil {
		return err
	}
	fmt.Printf("Added exercise: %s (ID: %d)\n", ex.Name, id)
	return nil
}

type ExerciseListCmd struct {
	Category string `short:"c" help:"Filter by category."`
	Sort     string `short:"s" help:"Sort field." default:"name"`
}

func (c *ExerciseListCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	var (
		exercises []*models.Exercise
		err       error
	)
	if c.Category != "" {
		exercises, err = ctx.Exercises.GetExercisesByCategory(ctx.Ctx, models.Category(c.Category))
	} else {
		exercises, err = ctx.Exercises.GetAllExercises(ctx.Ctx, storage.ListOptions{SortBy: c.Sort})
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(exercises))
	for _, ex := range exercises {
		kind := "built-in"
		if ex.IsCustom {
			kind = "custom"
		}
		rows = append(rows, []string{
			strconv.FormatInt(ex.ID, 10), ex.Name, string(ex.Category),
			string(ex.Equipment), string(ex.Difficulty), kind,
		})
	}
	printTable([]string{"ID", "NAME", "CATEGORY", "EQUIPMENT", "DIFFICULTY", "KIND"}, rows)
	return nil
}

type ExerciseSearchCmd struct {
	Query string `arg:"" help:"Name substring to search for."`
	Limit int    `short:"n" help:"Maximum results." default:"20"`
}

func (c *ExerciseSearchCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	exercises, err := ctx.Exercises.SearchExercises(ctx.Ctx, c.Query, c.Limit)
	if err != nil {
		return err
	}
	for _, ex := range exercises {
		fmt.Printf("%4d  %-28s %s\n", ex.ID, ex.Name, dimStyle.Render(string(ex.Category)))
	}
	if len(exercises) == 0 {
		fmt.Println(dimStyle.Render("no matches"))
	}
	return nil
}

type ExerciseShowCmd struct {
	ID int64 `arg:"" help:"Exercise ID."`
}

func (c *ExerciseShowCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	ex, err := ctx.Exercises.GetExerciseByID(ctx.Ctx, c.ID)
	if err != nil {
		return err
	}

	printTitle(ex.Name)
	fmt.Printf("category:   %s\n", ex.Category.DisplayName())
	fmt.Printf("equipment:  %s\n", ex.Equipment)
	fmt.Printf("difficulty: %s\n", ex.Difficulty)
	fmt.Printf("muscles:    %s\n", strings.Join(ex.MuscleGroups, ", "))
	if ex.Instructions != "" {
		fmt.Printf("\n%s\n", ex.Instructions)
	}

	stats, err := ctx.Exercises.GetExerciseStats(ctx.Ctx, c.ID)
	if err != nil {
		return err
	}
	if stats.TotalSets > 0 {
		fmt.Println()
		printTitle("history")
		fmt.Printf("sets: %d  reps: %d  volume: %.1f\n",
			stats.TotalSets, stats.TotalReps, stats.TotalVolume)
		fmt.Printf("best weight: %.1f  best reps: %d  est. 1RM: %.1f\n",
			stats.MaxWeight, stats.MaxReps, stats.EstimatedOneRM)
	}
	return nil
}

type ExerciseDeleteCmd struct {
	ID int64 `arg:"" help:"Exercise ID."`
}

func (c *ExerciseDeleteCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	if err := ctx.Exercises.DeleteExercise(ctx.Ctx, c.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted exercise %d\n", c.ID)
	return nil
}
