package storage

import (
	"context"
	"fmt"

	"github.com/liftlog/liftlog/internal/logger"
	"github.com/liftlog/liftlog/internal/models"
)

// Seeding guards. Once set, seeding never runs again for this database
// even if the user later deletes every seeded record.
const (
	settingLibrarySeeded   = "seeded.library"
	settingTemplatesSeeded = "seeded.templates"
)

// builtinExercises is the fixed exercise library installed on first run.
var builtinExercises = []models.Exercise{
	{Name: "Bench Press", Category: models.CategoryChest, MuscleGroups: []string{"chest", "triceps", "shoulders"}, Equipment: models.EquipmentBarbell, Difficulty: models.DifficultyIntermediate,
		Instructions: "Lie on the bench, grip slightly wider than shoulders, lower the bar to mid-chest and press up.",
		SafetyNotes:  "Use a spotter or safety pins for heavy attempts."},
	{Name: "Push-ups", Category: models.CategoryChest, MuscleGroups: []string{"chest", "triceps", "core"}, Equipment: models.EquipmentBodyweight, Difficulty: models.DifficultyBeginner,
		Instructions: "Hands under shoulders, body in a straight line, lower until the chest nearly touches the floor.",
		Variations:   []string{"Incline push-up", "Diamond push-up"}},
	{Name: "Incline Dumbbell Press", Category: models.CategoryChest, MuscleGroups: []string{"chest", "shoulders"}, Equipment: models.EquipmentDumbbell, Difficulty: models.DifficultyIntermediate},
	{Name: "Deadlift", Category: models.CategoryBack, MuscleGroups: []string{"back", "glutes", "hamstrings"}, Equipment: models.EquipmentBarbell, Difficulty: models.DifficultyAdvanced,
		Instructions: "Hinge at the hips, keep the bar close, drive through the floor and lock out standing tall.",
		SafetyNotes:  "Keep a neutral spine throughout; do not round the lower back."},
	{Name: "Pull-ups", Category: models.CategoryBack, MuscleGroups: []string{"back", "biceps"}, Equipment: models.EquipmentBodyweight, Difficulty: models.DifficultyIntermediate,
		Variations: []string{"Chin-up", "Neutral-grip pull-up"}},
	{Name: "Bent-over Row", Category: models.CategoryBack, MuscleGroups: []string{"back", "biceps"}, Equipment: models.EquipmentBarbell, Difficulty: models.DifficultyIntermediate},
	{Name: "Lat Pulldown", Category: models.CategoryBack, MuscleGroups: []string{"back", "biceps"}, Equipment: models.EquipmentCable, Difficulty: models.DifficultyBeginner},
	{Name: "Overhead Press", Category: models.CategoryShoulders, MuscleGroups: []string{"shoulders", "triceps"}, Equipment: models.EquipmentBarbell, Difficulty: models.DifficultyIntermediate,
		SafetyNotes: "Brace the core and avoid excessive lower-back arch."},
	{Name: "Lateral Raise", Category: models.CategoryShoulders, MuscleGroups: []string{"shoulders"}, Equipment: models.EquipmentDumbbell, Difficulty: models.DifficultyBeginner},
	{Name: "Face Pull", Category: models.CategoryShoulders, MuscleGroups: []string{"shoulders", "back"}, Equipment: models.EquipmentCable, Difficulty: models.DifficultyBeginner},
	{Name: "Barbell Curl", Category: models.CategoryArms, MuscleGroups: []string{"biceps"}, Equipment: models.EquipmentBarbell, Difficulty: models.DifficultyBeginner},
	{Name: "Triceps Pushdown", Category: models.CategoryArms, MuscleGroups: []string{"triceps"}, Equipment: models.EquipmentCable, Difficulty: models.DifficultyBeginner},
	{Name: "Hammer Curl", Category: models.CategoryArms, MuscleGroups: []string{"biceps", "forearms"}, Equipment: models.EquipmentDumbbell, Difficulty: models.DifficultyBeginner},
	{Name: "Squat", Category: models.CategoryLegs, MuscleGroups: []string{"quads", "glutes", "hamstrings"}, Equipment: models.EquipmentBarbell, Difficulty: models.DifficultyIntermediate,
		Instructions: "Bar on the upper back, sit down between the hips until thighs pass parallel, stand back up.",
		SafetyNotes:  "Squat inside a rack with safety bars set just below depth."},
	{Name: "Romanian Deadlift", Category: models.CategoryLegs, MuscleGroups: []string{"hamstrings", "glutes"}, Equipment: models.EquipmentBarbell, Difficulty: models.DifficultyIntermediate},
	{Name: "Leg Press", Category: models.CategoryLegs, MuscleGroups: []string{"quads", "glutes"}, Equipment: models.EquipmentMachine, Difficulty: models.DifficultyBeginner},
	{Name: "Walking Lunge", Category: models.CategoryLegs, MuscleGroups: []string{"quads", "glutes"}, Equipment: models.EquipmentDumbbell, Difficulty: models.DifficultyBeginner},
	{Name: "Plank", Category: models.CategoryCore, MuscleGroups: []string{"core"}, Equipment: models.EquipmentBodyweight, Difficulty: models.DifficultyBeginner,
		Instructions: "Forearms on the floor, body in a straight line, hold."},
	{Name: "Hanging Leg Raise", Category: models.CategoryCore, MuscleGroups: []string{"core", "hip flexors"}, Equipment: models.EquipmentBodyweight, Difficulty: models.DifficultyIntermediate},
	{Name: "Russian Twist", Category: models.CategoryCore, MuscleGroups: []string{"core", "obliques"}, Equipment: models.EquipmentBodyweight, Difficulty: models.DifficultyBeginner},
	{Name: "Rowing Machine", Category: models.CategoryCardio, MuscleGroups: []string{"back", "legs", "cardio"}, Equipment: models.EquipmentMachine, Difficulty: models.DifficultyBeginner},
	{Name: "Jump Rope", Category: models.CategoryCardio, MuscleGroups: []string{"calves", "cardio"}, Equipment: models.EquipmentOther, Difficulty: models.DifficultyBeginner},
	{Name: "Burpee", Category: models.CategoryFullBody, MuscleGroups: []string{"chest", "legs", "core"}, Equipment: models.EquipmentBodyweight, Difficulty: models.DifficultyIntermediate},
	{Name: "Kettlebell Swing", Category: models.CategoryFullBody, MuscleGroups: []string{"glutes", "hamstrings", "core"}, Equipment: models.EquipmentKettlebell, Difficulty: models.DifficultyIntermediate},
}

// templateDef declares a built-in plan template by exercise name so the
// seeder can resolve generated keys.
type templateDef struct {
	plan      models.Plan
	exercises []templateExercise
}

type templateExercise struct {
	name       string
	sets, reps int
	restSec    int
	superset   string
}

var builtinTemplates = []templateDef{
	{
		plan: models.Plan{Name: "Beginner Full Body", Difficulty: models.DifficultyBeginner,
			Category: models.CategoryFullBody, Type: models.PlanTypeGeneral, IsTemplate: true},
		exercises: []templateExercise{
			{name: "Squat", sets: 3, reps: 8, restSec: 120},
			{name: "Push-ups", sets: 3, reps: 10, restSec: 90},
			{name: "Lat Pulldown", sets: 3, reps: 10, restSec: 90},
			{name: "Plank", sets: 3, reps: 1, restSec: 60},
		},
	},
	{
		plan: models.Plan{Name: "Push Day", Difficulty: models.DifficultyIntermediate,
			Category: models.CategoryChest, Type: models.PlanTypeHypertrophy, IsTemplate: true},
		exercises: []templateExercise{
			{name: "Bench Press", sets: 4, reps: 6, restSec: 150},
			{name: "Overhead Press", sets: 3, reps: 8, restSec: 120},
			{name: "Incline Dumbbell Press", sets: 3, reps: 10, restSec: 90},
			{name: "Lateral Raise", sets: 3, reps: 12, restSec: 60, superset: "A"},
			{name: "Triceps Pushdown", sets: 3, reps: 12, restSec: 60, superset: "A"},
		},
	},
	{
		plan: models.Plan{Name: "Pull Day", Difficulty: models.DifficultyIntermediate,
			Category: models.CategoryBack, Type: models.PlanTypeHypertrophy, IsTemplate: true},
		exercises: []templateExercise{
			{name: "Deadlift", sets: 3, reps: 5, restSec: 180},
			{name: "Pull-ups", sets: 4, reps: 8, restSec: 120},
			{name: "Bent-over Row", sets: 3, reps: 10, restSec: 90},
			{name: "Face Pull", sets: 3, reps: 15, restSec: 60, superset: "A"},
			{name: "Barbell Curl", sets: 3, reps: 12, restSec: 60, superset: "A"},
		},
	},
	{
		plan: models.Plan{Name: "Leg Day", Difficulty: models.DifficultyAdvanced,
			Category: models.CategoryLegs, Type: models.PlanTypeStrength, IsTemplate: true},
		exercises: []templateExercise{
			{name: "Squat", sets: 5, reps: 5, restSec: 180},
			{name: "Romanian Deadlift", sets: 3, reps: 8, restSec: 150},
			{name: "Leg Press", sets: 3, reps: 10, restSec: 120},
			{name: "Walking Lunge", sets: 3, reps: 12, restSec: 90},
		},
	},
}

// seedBuiltins installs the built-in exercise library and plan
// templates the first time a fresh database comes up empty. Each seed
// runs at most once per database, tracked in settings.
func (s *Store) seedBuiltins(ctx context.Context) error {
	if err := s.seedLibrary(ctx); err != nil {
		return err
	}
	return s.seedTemplates(ctx)
}

func (s *Store) seedLibrary(ctx context.Context) error {
	done, err := s.GetSetting(ctx, settingLibrarySeeded, "")
	if err != nil {
		return err
	}
	if done != "" {
		return nil
	}
	n, err := s.Count(ctx, CollectionExercises)
	if err != nil {
		return err
	}
	if n == 0 {
		recs := make([]models.Record, len(builtinExercises))
		for i := range builtinExercises {
			ex := builtinExercises[i]
			ex.IsCustom = false
			recs[i] = &ex
		}
		result, err := s.BulkAdd(ctx, CollectionExercises, recs)
		if err != nil {
			return fmt.Errorf("seed exercise library: %w", err)
		}
		logger.Info("seeded built-in exercise library", "count", len(result.IDs))
	}
	return s.SetSetting(ctx, settingLibrarySeeded, "true")
}

func (s *Store) seedTemplates(ctx context.Context) error {
	done, err := s.GetSetting(ctx, settingTemplatesSeeded, "")
	if err != nil {
		return err
	}
	if done != "" {
		return nil
	}
	n, err := s.Count(ctx, CollectionPlans)
	if err != nil {
		return err
	}
	if n == 0 {
		byName := map[string]int64{}
		all, err := GetAll[models.Exercise](ctx, s, CollectionExercises, ListOptions{})
		if err != nil {
			return err
		}
		for _, ex := range all {
			byName[ex.Name] = ex.ID
		}

		seeded := 0
		for _, def := range builtinTemplates {
			plan := def.plan
			plan.Version = 1
			for _, te := range def.exercises {
				id, ok := byName[te.name]
				if !ok {
					// Library was customized before templates seeded;
					// skip the missing slot rather than the whole plan.
					logger.Warn("template references unknown exercise", "plan", plan.Name, "exercise", te.name)
					continue
				}
				plan.Exercises = append(plan.Exercises, models.PlanExercise{
					ExerciseID:    id,
					TargetSets:    te.sets,
					TargetReps:    te.reps,
					RestTimeSec:   te.restSec,
					SupersetGroup: te.superset,
				})
			}
			if _, err := s.Add(ctx, CollectionPlans, &plan); err != nil {
				return fmt.Errorf("seed plan template %q: %w", plan.Name, err)
			}
			seeded++
		}
		logger.Info("seeded built-in plan templates", "count", seeded)
	}
	return s.SetSetting(ctx, settingTemplatesSeeded, "true")
}
