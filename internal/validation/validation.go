// Package validation holds the per-entity schema rules enforced before
// any write reaches the store. It is deliberately free of persistence
// concerns so rules are unit-testable without a live database.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/liftlog/liftlog/internal/models"
)

// Error carries the full list of violated rules for one record.
type Error struct {
	Rules []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Rules, "; "))
}

// NewError wraps a non-empty rule list; it returns nil for an empty one
// so callers can write `return validation.NewError(rules)`.
func NewError(rules []string) error {
	if len(rules) == 0 {
		return nil
	}
	return &Error{Rules: rules}
}

// scriptRe matches script blocks and event-handler fragments that must
// never reach persisted free text.
var (
	scriptRe = regexp.MustCompile(`(?is)<script.*?>.*?</script>|<script.*?/?>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
)

// Sanitize strips script-like content and markup from a free-text field.
func Sanitize(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func SanitizeAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if clean := Sanitize(s); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func validCategory(c models.Category) bool {
	for _, v := range models.Categories() {
		if c == v {
			return true
		}
	}
	return false
}

func validEquipment(e models.Equipment) bool {
	for _, v := range models.EquipmentTypes() {
		if e == v {
			return true
		}
	}
	return false
}

func validDifficulty(d models.Difficulty) bool {
	for _, v := range models.Difficulties() {
		if d == v {
			return true
		}
	}
	return false
}

// ValidateExercise returns the list of violated rules, empty when valid.
func ValidateExercise(e *models.Exercise) []string {
	var rules []string
	if strings.TrimSpace(e.Name) == "" {
		rules = append(rules, "name is required")
	}
	if !validCategory(e.Category) {
		rules = append(rules, fmt.Sprintf("category %q is not a valid category", e.Category))
	}
	if len(e.MuscleGroups) == 0 {
		rules = append(rules, "at least one muscle group is required")
	}
	for _, g := range e.MuscleGroups {
		if strings.TrimSpace(g) == "" {
			rules = append(rules, "muscle groups must be non-empty strings")
			break
		}
	}
	if !validEquipment(e.Equipment) {
		rules = append(rules, fmt.Sprintf("equipment %q is not a valid equipment type", e.Equipment))
	}
	if !validDifficulty(e.Difficulty) {
		rules = append(rules, fmt.Sprintf("difficulty %q is not a valid difficulty", e.Difficulty))
	}
	return rules
}

// SanitizeExercise cleans every free-text field in place.
func SanitizeExercise(e *models.Exercise) {
	e.Name = Sanitize(e.Name)
	e.Instructions = Sanitize(e.Instructions)
	e.SafetyNotes = Sanitize(e.SafetyNotes)
	e.Tips = SanitizeAll(e.Tips)
	e.Variations = SanitizeAll(e.Variations)
}

func ValidateWorkout(w *models.Workout) []string {
	var rules []string
	if strings.TrimSpace(w.Name) == "" {
		rules = append(rules, "name is required")
	}
	if w.StartTime.IsZero() {
		rules = append(rules, "start time is required")
	}
	switch w.Status {
	case models.WorkoutStatusActive, models.WorkoutStatusPaused,
		models.WorkoutStatusCompleted, models.WorkoutStatusCancelled:
	default:
		rules = append(rules, fmt.Sprintf("status %q is not a valid workout status", w.Status))
	}
	if w.EndTime != nil && w.EndTime.Before(w.StartTime) {
		rules = append(rules, "end time must not be before start time")
	}
	for i, we := range w.Exercises {
		if we.ExerciseID <= 0 {
			rules = append(rules, fmt.Sprintf("exercise %d: exercise id is required", i))
		}
		if we.TargetSets < 0 {
			rules = append(rules, fmt.Sprintf("exercise %d: target sets must not be negative", i))
		}
	}
	return rules
}

func SanitizeWorkout(w *models.Workout) {
	w.Name = Sanitize(w.Name)
	w.Notes = Sanitize(w.Notes)
}

func ValidateSet(s *models.Set) []string {
	var rules []string
	if s.WorkoutID <= 0 {
		rules = append(rules, "workout id is required")
	}
	if s.ExerciseID <= 0 {
		rules = append(rules, "exercise id is required")
	}
	if s.Reps < 0 {
		rules = append(rules, "reps must not be negative")
	}
	if s.Weight < 0 {
		rules = append(rules, "weight must not be negative")
	}
	if s.RPE != nil && (*s.RPE < 1 || *s.RPE > 10) {
		rules = append(rules, "rpe must be between 1 and 10")
	}
	return rules
}

func SanitizeSet(s *models.Set) {
	s.Notes = Sanitize(s.Notes)
	s.Tempo = Sanitize(s.Tempo)
}

var dayNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// ValidDayName reports whether s names a weekday (case-insensitive).
func ValidDayName(s string) bool {
	return dayNames[strings.ToLower(strings.TrimSpace(s))]
}

func ValidatePlan(p *models.Plan) []string {
	var rules []string
	if strings.TrimSpace(p.Name) == "" {
		rules = append(rules, "name is required")
	}
	if !validDifficulty(p.Difficulty) {
		rules = append(rules, fmt.Sprintf("difficulty %q is not a valid difficulty", p.Difficulty))
	}
	if !validCategory(p.Category) {
		rules = append(rules, fmt.Sprintf("category %q is not a valid category", p.Category))
	}
	for i, pe := range p.Exercises {
		if pe.ExerciseID <= 0 {
			rules = append(rules, fmt.Sprintf("exercise %d: exercise id is required", i))
		}
		if pe.TargetSets <= 0 {
			rules = append(rules, fmt.Sprintf("exercise %d: target sets must be positive", i))
		}
		if pe.TargetReps < 0 || pe.TargetDurationSec < 0 {
			rules = append(rules, fmt.Sprintf("exercise %d: targets must not be negative", i))
		}
	}
	if p.Schedule != nil {
		if p.Schedule.Frequency < 1 || p.Schedule.Frequency > 7 {
			rules = append(rules, "schedule frequency must be between 1 and 7")
		}
		for _, d := range p.Schedule.Days {
			if !ValidDayName(d) {
				rules = append(rules, fmt.Sprintf("schedule day %q is not a valid day name", d))
			}
		}
	}
	return rules
}

func SanitizePlan(p *models.Plan) {
	p.Name = Sanitize(p.Name)
	p.Notes = Sanitize(p.Notes)
}

func ValidateProgress(p *models.ProgressRecord) []string {
	var rules []string
	switch p.Kind {
	case models.ProgressGoal, models.ProgressMeasurement, models.ProgressAchievement:
	default:
		rules = append(rules, fmt.Sprintf("kind %q is not a valid progress kind", p.Kind))
	}
	if strings.TrimSpace(p.Name) == "" {
		rules = append(rules, "name is required")
	}
	return rules
}

func SanitizeProgress(p *models.ProgressRecord) {
	p.Name = Sanitize(p.Name)
	p.Notes = Sanitize(p.Notes)
}

// ForRecord dispatches to the validator for the record's concrete type.
// Unknown types validate clean: collections without declared rules are
// accepted as-is.
func ForRecord(rec models.Record) []string {
	switch r := rec.(type) {
	case *models.Exercise:
		SanitizeExercise(r)
		return ValidateExercise(r)
	case *models.Workout:
		SanitizeWorkout(r)
		return ValidateWorkout(r)
	case *models.Set:
		SanitizeSet(r)
		return ValidateSet(r)
	case *models.Plan:
		SanitizePlan(r)
		return ValidatePlan(r)
	case *models.ProgressRecord:
		SanitizeProgress(r)
		return ValidateProgress(r)
	default:
		return nil
	}
}
