package manager

import (
	"context"
	"fmt"

	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
	"github.com/liftlog/liftlog/internal/validation"
)

type PlanManager struct {
	store    *storage.Store
	workouts *WorkoutManager
}

func NewPlanManager(store *storage.Store, workouts *WorkoutManager) *PlanManager {
	return &PlanManager{store: store, workouts: workouts}
}

// CreatePlan persists a new plan at version 1.
func (m *PlanManager) CreatePlan(ctx context.Context, p *models.Plan) (int64, error) {
	p.ID = 0
	p.Version = 1
	p.UsageCount = 0
	return m.store.Add(ctx, storage.CollectionPlans, p)
}

func (m *PlanManager) GetPlanByID(ctx context.Context, id int64) (*models.Plan, error) {
	return storage.Get[models.Plan](ctx, m.store, storage.CollectionPlans, id)
}

func (m *PlanManager) GetAllPlans(ctx context.Context, opts storage.ListOptions) ([]*models.Plan, error) {
	return storage.GetAll[models.Plan](ctx, m.store, storage.CollectionPlans, opts)
}

func (m *PlanManager) GetTemplates(ctx context.Context) ([]*models.Plan, error) {
	return storage.GetByIndex[models.Plan](ctx, m.store, storage.CollectionPlans, "is_template", true)
}

// UpdatePlan bumps the plan version on every successful edit. Usage
// count and creation time are preserved from the stored record.
func (m *PlanManager) UpdatePlan(ctx context.Context, p *models.Plan) error {
	existing, err := m.GetPlanByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Version = existing.Version + 1
	p.UsageCount = existing.UsageCount
	p.CreatedAt = existing.CreatedAt
	return m.store.Update(ctx, storage.CollectionPlans, p)
}

func (m *PlanManager) DeletePlan(ctx context.Context, id int64) error {
	return m.store.Delete(ctx, storage.CollectionPlans, id)
}

// SchedulePlan attaches or replaces the plan's weekly schedule.
func (m *PlanManager) SchedulePlan(ctx context.Context, planID int64, schedule models.PlanSchedule) error {
	var rules []string
	if schedule.Frequency < 1 || schedule.Frequency > 7 {
		rules = append(rules, "schedule frequency must be between 1 and 7 sessions per week")
	}
	for _, d := range schedule.Days {
		if !validation.ValidDayName(d) {
			rules = append(rules, fmt.Sprintf("unknown day name %q", d))
		}
	}
	if len(rules) > 0 {
		return validation.NewError(rules)
	}

	p, err := m.GetPlanByID(ctx, planID)
	if err != nil {
		return err
	}
	p.Schedule = &schedule
	return m.UpdatePlan(ctx, p)
}

// UnschedulePlan deactivates the plan's schedule without discarding it.
func (m *PlanManager) UnschedulePlan(ctx context.Context, planID int64) error {
	p, err := m.GetPlanByID(ctx, planID)
	if err != nil {
		return err
	}
	if p.Schedule == nil {
		return nil
	}
	p.Schedule.Active = false
	return m.UpdatePlan(ctx, p)
}

// GroupSuperset tags the named exercise slots with a shared superset
// group so they are performed back to back.
func (m *PlanManager) GroupSuperset(ctx context.Context, planID int64, group string, exerciseIDs []int64) error {
	if group == "" {
		return validation.NewError([]string{"superset group name is required"})
	}
	p, err := m.GetPlanByID(ctx, planID)
	if err != nil {
		return err
	}

	member := make(map[int64]bool, len(exerciseIDs))
	for _, id := range exerciseIDs {
		member[id] = true
	}
	// An exercise may occupy several slots, so count distinct ids
	// matched rather than slots tagged.
	matched := make(map[int64]bool, len(member))
	for i := range p.Exercises {
		if member[p.Exercises[i].ExerciseID] {
			p.Exercises[i].SupersetGroup = group
			matched[p.Exercises[i].ExerciseID] = true
		}
	}
	if len(matched) != len(member) {
		return fmt.Errorf("superset group %q references exercises not in plan %d", group, planID)
	}
	return m.UpdatePlan(ctx, p)
}

// PlanEstimate summarizes the expected demands of a plan.
type PlanEstimate struct {
	DurationMin  int     `json:"duration_min"`
	Calories     int     `json:"calories"`
	TotalSets    int     `json:"total_sets"`
	ExerciseSecs int     `json:"exercise_secs"`
	RestSecs     int     `json:"rest_secs"`
	Intensity    float64 `json:"intensity"`
}

// difficulty scaling applied to the calorie estimate.
var difficultyFactor = map[models.Difficulty]float64{
	models.DifficultyBeginner:     0.8,
	models.DifficultyIntermediate: 1.0,
	models.DifficultyAdvanced:     1.25,
}

// per-set calorie base by category; cardio sets burn roughly double a
// typical strength set.
var categoryCalories = map[models.Category]float64{
	models.CategoryCardio:    12,
	models.CategoryLegs:      8,
	models.CategoryFullBody:  8,
	models.CategoryBack:      7,
	models.CategoryChest:     6,
	models.CategoryShoulders: 6,
	models.CategoryArms:      5,
	models.CategoryCore:      5,
}

// EstimatePlan derives an expected duration and calorie cost from the
// plan's sets, per-exercise rest and the exercise categories. Exercises
// inside a superset group skip rest between members.
func (m *PlanManager) EstimatePlan(ctx context.Context, planID int64) (PlanEstimate, error) {
	p, err := m.GetPlanByID(ctx, planID)
	if err != nil {
		return PlanEstimate{}, err
	}

	est := PlanEstimate{}
	factor := difficultyFactor[p.Difficulty]
	if factor == 0 {
		factor = 1.0
	}

	calories := 0.0
	for i, pe := range p.Exercises {
		ex, err := storage.Get[models.Exercise](ctx, m.store, storage.CollectionExercises, pe.ExerciseID)
		if err != nil {
			return PlanEstimate{}, err
		}

		sets := pe.TargetSets
		if sets == 0 {
			sets = 1
		}
		est.TotalSets += sets

		perSet := pe.TargetDurationSec
		if perSet == 0 {
			// ~4 seconds per rep for strength work
			reps := pe.TargetReps
			if reps == 0 {
				reps = 10
			}
			perSet = reps * 4
		}
		est.ExerciseSecs += sets * perSet

		rest := pe.RestTimeSec
		if rest == 0 {
			rest = defaultRestTime(ex)
		}
		// No rest between superset partners, only after the group.
		inSuperset := pe.SupersetGroup != "" && i+1 < len(p.Exercises) &&
			p.Exercises[i+1].SupersetGroup == pe.SupersetGroup
		if !inSuperset {
			est.RestSecs += sets * rest
		}

		base := categoryCalories[ex.Category]
		if base == 0 {
			base = 6
		}
		calories += float64(sets) * base * factor
	}

	est.Calories = int(calories)
	est.DurationMin = (est.ExerciseSecs + est.RestSecs + 59) / 60
	if est.ExerciseSecs+est.RestSecs > 0 {
		est.Intensity = float64(est.ExerciseSecs) / float64(est.ExerciseSecs+est.RestSecs)
	}
	return est, nil
}

// StartPlanWorkout opens a workout session seeded from the plan's
// exercise slots and bumps the plan's usage count. The single-active
// workout rule applies as with StartNewWorkout.
func (m *PlanManager) StartPlanWorkout(ctx context.Context, planID int64) (*models.Workout, error) {
	p, err := m.GetPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	w, err := m.workouts.StartNewWorkout(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	w.PlanID = &p.ID

	for _, pe := range p.Exercises {
		rest := pe.RestTimeSec
		if rest == 0 {
			ex, err := storage.Get[models.Exercise](ctx, m.store, storage.CollectionExercises, pe.ExerciseID)
			if err != nil {
				return nil, err
			}
			rest = defaultRestTime(ex)
		}
		w.Exercises = append(w.Exercises, models.WorkoutExercise{
			ExerciseID:  pe.ExerciseID,
			TargetSets:  pe.TargetSets,
			TargetReps:  pe.TargetReps,
			Sets:        []models.Set{},
			RestTimeSec: rest,
		})
	}
	if err := m.store.Update(ctx, storage.CollectionWorkouts, w); err != nil {
		return nil, err
	}

	p.UsageCount++
	if err := m.store.Update(ctx, storage.CollectionPlans, p); err != nil {
		return nil, err
	}
	return w, nil
}

// DuplicatePlan copies a plan (or template) into a fresh editable plan.
func (m *PlanManager) DuplicatePlan(ctx context.Context, planID int64, name string) (int64, error) {
	p, err := m.GetPlanByID(ctx, planID)
	if err != nil {
		return 0, err
	}
	dup := *p
	dup.ID = 0
	dup.IsTemplate = false
	dup.Schedule = nil
	dup.Exercises = append([]models.PlanExercise(nil), p.Exercises...)
	if name != "" {
		dup.Name = name
	} else {
		dup.Name = p.Name + " (copy)"
	}
	return m.CreatePlan(ctx, &dup)
}
