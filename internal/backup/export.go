// Package backup implements data portability and maintenance: full
// snapshot export in JSON, CSV and text form, dependency-ordered
// import with partial success, plan sharing, cleanup/reset, storage
// usage reporting and timestamped database file backups.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/liftlog/liftlog/internal/constants"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

// ExportOptions narrows what an export contains.
type ExportOptions struct {
	// From/To bound date-bearing records (workouts by start time, sets
	// by timestamp, progress by date). Nil means unbounded.
	From *time.Time
	To   *time.Time

	// ExcludePersonal drops goals and measurements from the export.
	ExcludePersonal bool

	// ExcludeStats drops the derived statistics block.
	ExcludeStats bool

	// Compact disables JSON indentation.
	Compact bool
}

// Metadata identifies one export.
type Metadata struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	AppVersion string         `json:"app_version"`
	Counts     map[string]int `json:"counts"`
}

// Statistics is the derived summary block included in full exports.
type Statistics struct {
	TotalWorkouts     int     `json:"total_workouts"`
	CompletedWorkouts int     `json:"completed_workouts"`
	TotalSets         int     `json:"total_sets"`
	TotalReps         int     `json:"total_reps"`
	TotalVolume       float64 `json:"total_volume"`
}

// Snapshot is the portable on-disk export payload.
type Snapshot struct {
	Metadata     Metadata                 `json:"metadata"`
	Exercises    []*models.Exercise       `json:"exercises"`
	Plans        []*models.Plan           `json:"plans"`
	Workouts     []*models.Workout        `json:"workouts"`
	Sets         []*models.Set            `json:"sets"`
	Goals        []*models.ProgressRecord `json:"goals,omitempty"`
	Measurements []*models.ProgressRecord `json:"measurements,omitempty"`
	Achievements []*models.ProgressRecord `json:"achievements,omitempty"`
	Settings     map[string]string        `json:"settings,omitempty"`
	Statistics   *Statistics              `json:"statistics,omitempty"`
}

// Engine runs export, import and maintenance operations against a
// store.
type Engine struct {
	store *storage.Store
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// BuildSnapshot collects the full store contents into a Snapshot,
// applying the export options.
func (e *Engine) BuildSnapshot(ctx context.Context, opts ExportOptions) (*Snapshot, error) {
	snap := &Snapshot{}

	exercises, err := storage.GetAll[models.Exercise](ctx, e.store, storage.CollectionExercises, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	snap.Exercises = exercises

	plans, err := storage.GetAll[models.Plan](ctx, e.store, storage.CollectionPlans, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	snap.Plans = plans

	workouts, err := storage.GetAll[models.Workout](ctx, e.store, storage.CollectionWorkouts, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, w := range workouts {
		if inRange(w.StartTime, opts.From, opts.To) {
			snap.Workouts = append(snap.Workouts, w)
		}
	}

	sets, err := storage.GetAll[models.Set](ctx, e.store, storage.CollectionSets, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		if inRange(s.Timestamp, opts.From, opts.To) {
			snap.Sets = append(snap.Sets, s)
		}
	}

	progress, err := storage.GetAll[models.ProgressRecord](ctx, e.store, storage.CollectionProgress, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, p := range progress {
		if !inRange(p.Date, opts.From, opts.To) {
			continue
		}
		switch p.Kind {
		case models.ProgressGoal:
			if !opts.ExcludePersonal {
				snap.Goals = append(snap.Goals, p)
			}
		case models.ProgressMeasurement:
			if !opts.ExcludePersonal {
				snap.Measurements = append(snap.Measurements, p)
			}
		case models.ProgressAchievement:
			snap.Achievements = append(snap.Achievements, p)
		}
	}

	settings, err := e.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	snap.Settings = settings

	if !opts.ExcludeStats {
		stats := &Statistics{TotalWorkouts: len(snap.Workouts)}
		for _, w := range snap.Workouts {
			if w.Status == models.WorkoutStatusCompleted {
				stats.CompletedWorkouts++
			}
			stats.TotalSets += w.TotalSets
			stats.TotalReps += w.TotalReps
			stats.TotalVolume += w.TotalVolume
		}
		snap.Statistics = stats
	}

	snap.Metadata = Metadata{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		AppVersion: constants.Version,
		Counts: map[string]int{
			"exercises":    len(snap.Exercises),
			"plans":        len(snap.Plans),
			"workouts":     len(snap.Workouts),
			"sets":         len(snap.Sets),
			"goals":        len(snap.Goals),
			"measurements": len(snap.Measurements),
			"achievements": len(snap.Achievements),
		},
	}
	return snap, nil
}

// ExportAllData renders the full store in the requested format and
// returns the payload with a timestamped suggested filename.
func (e *Engine) ExportAllData(ctx context.Context, format Format, opts ExportOptions) ([]byte, string, error) {
	snap, err := e.BuildSnapshot(ctx, opts)
	if err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("%s%s.%s", constants.BackupFilePrefix,
		time.Now().Format(constants.ExportTimestampFormat), format)

	var data []byte
	switch format {
	case FormatJSON:
		if opts.Compact {
			data, err = json.Marshal(snap)
		} else {
			data, err = json.MarshalIndent(snap, "", "  ")
		}
	case FormatCSV:
		data = renderCSV(snap)
	case FormatText:
		data = renderText(snap)
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, "", fmt.Errorf("render export: %w", err)
	}
	return data, name, nil
}

// csvField makes a value safe for the sectioned CSV format: embedded
// commas become semicolons, newlines become spaces.
func csvField(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", "")
}

func csvTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// renderCSV writes each collection as a "# Section" block with an
// explicit header row.
func renderCSV(snap *Snapshot) []byte {
	var b strings.Builder

	b.WriteString("# Metadata\n")
	b.WriteString("id,created_at,app_version\n")
	fmt.Fprintf(&b, "%s,%s,%s\n\n",
		snap.Metadata.ID, csvTime(snap.Metadata.CreatedAt), snap.Metadata.AppVersion)

	b.WriteString("# Exercises\n")
	b.WriteString(strings.Join(exerciseCSVHeader, ",") + "\n")
	for _, ex := range snap.Exercises {
		fmt.Fprintf(&b, "%d,%s,%s,%s,%s,%s,%t\n",
			ex.ID, csvField(ex.Name), ex.Category, ex.Equipment, ex.Difficulty,
			csvField(strings.Join(ex.MuscleGroups, "|")), ex.IsCustom)
	}
	b.WriteString("\n# Plans\n")
	b.WriteString(strings.Join(planCSVHeader, ",") + "\n")
	for _, p := range snap.Plans {
		fmt.Fprintf(&b, "%d,%s,%s,%s,%s,%d,%d\n",
			p.ID, csvField(p.Name), p.Category, p.Difficulty, p.Type,
			len(p.Exercises), p.UsageCount)
	}
	b.WriteString("\n# Workouts\n")
	b.WriteString(strings.Join(workoutCSVHeader, ",") + "\n")
	for _, w := range snap.Workouts {
		end := ""
		if w.EndTime != nil {
			end = csvTime(*w.EndTime)
		}
		fmt.Fprintf(&b, "%d,%s,%s,%s,%s,%d,%d,%g,%s\n",
			w.ID, csvField(w.Name), csvTime(w.StartTime), end, w.Status,
			w.TotalSets, w.TotalReps, w.TotalVolume, csvField(w.Notes))
	}
	b.WriteString("\n# Sets\n")
	b.WriteString(strings.Join(setCSVHeader, ",") + "\n")
	for _, s := range snap.Sets {
		rpe := ""
		if s.RPE != nil {
			rpe = strconv.Itoa(*s.RPE)
		}
		fmt.Fprintf(&b, "%d,%d,%d,%d,%g,%s,%s,%t\n",
			s.ID, s.WorkoutID, s.ExerciseID, s.Reps, s.Weight, rpe,
			csvTime(s.Timestamp), s.IsWarmup)
	}

	writeProgressSection := func(title string, recs []*models.ProgressRecord) {
		b.WriteString("\n# " + title + "\n")
		b.WriteString(strings.Join(progressCSVHeader, ",") + "\n")
		for _, p := range recs {
			fmt.Fprintf(&b, "%d,%s,%s,%s,%g,%s\n",
				p.ID, p.Kind, csvField(p.Name), csvTime(p.Date), p.Value, csvField(p.Unit))
		}
	}
	writeProgressSection("Goals", snap.Goals)
	writeProgressSection("Measurements", snap.Measurements)
	writeProgressSection("Achievements", snap.Achievements)

	return []byte(b.String())
}

// renderText produces a human-readable summary rather than a full dump.
func renderText(snap *Snapshot) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "liftlog export %s\n", snap.Metadata.CreatedAt.Format(constants.DateFormat))
	fmt.Fprintf(&b, "app version: %s\n\n", snap.Metadata.AppVersion)

	keys := make([]string, 0, len(snap.Metadata.Counts))
	for k := range snap.Metadata.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%-14s %d\n", k, snap.Metadata.Counts[k])
	}

	if snap.Statistics != nil {
		s := snap.Statistics
		b.WriteString("\nstatistics\n")
		fmt.Fprintf(&b, "  workouts completed: %d of %d\n", s.CompletedWorkouts, s.TotalWorkouts)
		fmt.Fprintf(&b, "  working sets:       %d\n", s.TotalSets)
		fmt.Fprintf(&b, "  total reps:         %d\n", s.TotalReps)
		fmt.Fprintf(&b, "  total volume:       %.1f\n", s.TotalVolume)
	}

	if len(snap.Workouts) > 0 {
		b.WriteString("\nrecent workouts\n")
		n := len(snap.Workouts)
		if n > 10 {
			n = 10
		}
		for _, w := range snap.Workouts[len(snap.Workouts)-n:] {
			fmt.Fprintf(&b, "  %s  %-24s %s\n",
				w.StartTime.Format(constants.DateFormat), w.Name, w.Status)
		}
	}
	return []byte(b.String())
}

// SharedPlan is the stripped plan payload produced by ShareWorkoutPlan:
// no surrogate keys, usage counters or schedules, exercises referenced
// by name so the plan is portable between databases.
type SharedPlan struct {
	Name       string            `json:"name"`
	Category   models.Category   `json:"category"`
	Difficulty models.Difficulty `json:"difficulty"`
	Type       models.PlanType   `json:"type,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Exercises  []SharedPlanSlot  `json:"exercises"`
}

type SharedPlanSlot struct {
	Exercise      string `json:"exercise"`
	TargetSets    int    `json:"target_sets"`
	TargetReps    int    `json:"target_reps,omitempty"`
	RestTimeSec   int    `json:"rest_time_sec"`
	SupersetGroup string `json:"superset_group,omitempty"`
}

// ShareWorkoutPlan renders a single plan for sharing, in JSON or text.
func (e *Engine) ShareWorkoutPlan(ctx context.Context, planID int64, format Format) ([]byte, error) {
	p, err := storage.Get[models.Plan](ctx, e.store, storage.CollectionPlans, planID)
	if err != nil {
		return nil, err
	}

	shared := SharedPlan{
		Name:       p.Name,
		Category:   p.Category,
		Difficulty: p.Difficulty,
		Type:       p.Type,
		Notes:      p.Notes,
	}
	for _, pe := range p.Exercises {
		ex, err := storage.Get[models.Exercise](ctx, e.store, storage.CollectionExercises, pe.ExerciseID)
		if err != nil {
			return nil, err
		}
		shared.Exercises = append(shared.Exercises, SharedPlanSlot{
			Exercise:      ex.Name,
			TargetSets:    pe.TargetSets,
			TargetReps:    pe.TargetReps,
			RestTimeSec:   pe.RestTimeSec,
			SupersetGroup: pe.SupersetGroup,
		})
	}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(shared, "", "  ")
	case FormatText:
		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s, %s)\n", shared.Name, shared.Category, shared.Difficulty)
		if shared.Notes != "" {
			fmt.Fprintf(&b, "%s\n", shared.Notes)
		}
		for i, slot := range shared.Exercises {
			line := fmt.Sprintf("%d. %s  %dx%d  rest %ds",
				i+1, slot.Exercise, slot.TargetSets, slot.TargetReps, slot.RestTimeSec)
			if slot.SupersetGroup != "" {
				line += "  [superset " + slot.SupersetGroup + "]"
			}
			b.WriteString(line + "\n")
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
