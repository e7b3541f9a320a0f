package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

type PlanCreateCmd struct {
	Name       string `arg:"" help:"Plan name."`
	Category   string `short:"c" help:"Category." default:"full-body"`
	Difficulty string `short:"d" help:"Difficulty." default:"beginner"`
	Type       string `short:"t" help:"Plan type (strength|hypertrophy|endurance|general)." default:"general"`
	// Exercises is a comma-separated list of id:sets:reps triples,
	// e.g. "3:3:10,7:4:8".
	Exercises string `short:"e" help:"Exercise slots as id:sets:reps, comma separated." required:""`
}

func (c *PlanCreateCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	var slots []models.PlanExercise
	for _, spec := range strings.Split(c.Exercises, ",") {
		parts := strings.Split(strings.TrimSpace(spec), ":")
		if len(parts) != 3 {
			return fmt.Errorf("invalid exercise slot %q, want id:sets:reps", spec)
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exercise id in %q", spec)
		}
		sets, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("invalid set count in %q", spec)
		}
		reps, err := strconv.Atoi(parts[2])
		if err != nil {
			return fmt.Errorf("invalid rep count in %q", spec)
		}
		slots = append(slots, models.PlanExercise{
			ExerciseID: id, TargetSets: sets, TargetReps: reps,
		})
	}

	plan := &models.Plan{
		Name:       c.Name,
		Category:   models.Category(c.Category),
		Difficulty: models.Difficulty(c.Difficulty),
		Type:       models.PlanType(c.Type),
		Exercises:  slots,
	}
	id, err := ctx.Plans.CreatePlan(ctx.Ctx, plan)
	if err != nil {
		return err
	}
	fmt.Printf("Created plan: %s (ID: %d)\n", plan.Name, id)
	return nil
}

type PlanListCmd struct {
	Templates bool `short:"t" help:"Show only built-in templates."`
}

func (c *PlanListCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	var (
		plans []*models.Plan
		err   error
	)
	if c.Templates {
		plans, err = ctx.Plans.GetTemplates(ctx.Ctx)
	} else {
		plans, err = ctx.Plans.GetAllPlans(ctx.Ctx, storage.ListOptions{SortBy: "name"})
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		kind := "plan"
		if p.IsTemplate {
			kind = "template"
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10), p.Name, string(p.Category),
			strconv.Itoa(len(p.Exercises)), strconv.Itoa(p.UsageCount),
			"v" + strconv.Itoa(p.Version), kind,
		})
	}
	printTable([]string{"ID", "NAME", "CATEGORY", "EXERCISES", "USED", "VER", "KIND"}, rows)
	return nil
}

type PlanShowCmd struct {
	ID int64 `arg:"" help:"Plan ID."`
}

func (c *PlanShowCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	p, err := ctx.Plans.GetPlanByID(ctx.Ctx, c.ID)
	if err != nil {
		return err
	}

	printTitle(fmt.Sprintf("%s (%s, %s)", p.Name, p.Category, p.Difficulty))
	for i, pe := range p.Exercises {
		line := fmt.Sprintf("%2d. exercise %d  %dx%d", i+1, pe.ExerciseID, pe.TargetSets, pe.TargetReps)
		if pe.SupersetGroup != "" {
			line += dimStyle.Render("  [superset " + pe.SupersetGroup + "]")
		}
		fmt.Println(line)
	}
	if p.Schedule != nil && p.Schedule.Active {
		fmt.Printf("\nscheduled %dx/week", p.Schedule.Frequency)
		if len(p.Schedule.Days) > 0 {
			fmt.Printf(" on %s", strings.Join(p.Schedule.Days, ", "))
		}
		fmt.Println()
	}

	est, err := ctx.Plans.EstimatePlan(ctx.Ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nestimated: %d min, ~%d kcal (%d sets)\n",
		est.DurationMin, est.Calories, est.TotalSets)
	return nil
}

type PlanScheduleCmd struct {
	ID        int64  `arg:"" help:"Plan ID."`
	Frequency int    `short:"f" help:"Sessions per week (1-7)." required:""`
	Days      string `short:"d" help:"Comma-separated day names."`
	Time      string `short:"t" help:"Time of day (HH:MM)."`
}

func (c *PlanScheduleCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	schedule := models.PlanSchedule{
		Frequency: c.Frequency,
		TimeOfDay: c.Time,
		Active:    true,
	}
	for _, d := range strings.Split(c.Days, ",") {
		if d = strings.TrimSpace(d); d != "" {
			schedule.Days = append(schedule.Days, d)
		}
	}
	if err := ctx.Plans.SchedulePlan(ctx.Ctx, c.ID, schedule); err != nil {
		return err
	}
	fmt.Printf("Scheduled plan %d: %dx/week\n", c.ID, c.Frequency)
	return nil
}

type PlanStartCmd struct {
	ID int64 `arg:"" help:"Plan ID to start a workout from."`
}

func (c *PlanStartCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	w, err := ctx.Plans.StartPlanWorkout(ctx.Ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Started workout from plan: %s (workout ID: %d, %d exercises)\n",
		w.Name, w.ID, len(w.Exercises))
	return nil
}

type PlanDeleteCmd struct {
	ID int64 `arg:"" help:"Plan ID."`
}

func (c *PlanDeleteCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	if err := ctx.Plans.DeletePlan(ctx.Ctx, c.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted plan %d\n", c.ID)
	return nil
}

type PlanShareCmd struct {
	ID     int64  `arg:"" help:"Plan ID."`
	Format string `short:"f" help:"Share format (json|txt)." default:"txt"`
}

func (c *PlanShareCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	data, err := ctx.Engine.ShareWorkoutPlan(ctx.Ctx, c.ID, shareFormat(c.Format))
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
