package backup

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/liftlog/liftlog/internal/constants"
	"github.com/liftlog/liftlog/internal/logger"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

// ImportOptions controls duplicate handling during import.
type ImportOptions struct {
	// SkipDuplicates skips exercises whose name already exists and
	// workouts starting on a date that already has a workout of the
	// same name.
	SkipDuplicates bool
}

// ImportReport is the per-collection outcome of an import. Errors hold
// records that were rejected; their presence does not abort the rest
// of the file.
type ImportReport struct {
	Exercises    int      `json:"exercises"`
	Plans        int      `json:"plans"`
	Workouts     int      `json:"workouts"`
	Sets         int      `json:"sets"`
	Goals        int      `json:"goals"`
	Measurements int      `json:"measurements"`
	Achievements int      `json:"achievements"`
	Settings     int      `json:"settings"`
	Skipped      int      `json:"skipped"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// ImportData reads an export file and merges it into the store. The
// format is detected from the file extension. Records import in
// dependency order so references can be remapped onto freshly
// generated keys.
func (e *Engine) ImportData(ctx context.Context, path string, opts ImportOptions) (*ImportReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat import file: %w", err)
	}
	if info.Size() > constants.MaxImportBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return e.importJSON(ctx, data, opts)
	case ".csv":
		return e.importCSV(ctx, data, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (e *Engine) importJSON(ctx context.Context, data []byte, opts ImportOptions) (*ImportReport, error) {
	// Shape check before any write: top level must be an object carrying
	// at least one known collection key.
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	known := false
	for _, key := range []string{"exercises", "plans", "workouts", "sets", "goals", "measurements", "achievements", "metadata"} {
		if _, ok := shape[key]; ok {
			known = true
			break
		}
	}
	if !known {
		return nil, ErrInvalidShape
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	return e.applySnapshot(ctx, &snap, opts)
}

// applySnapshot merges a snapshot in dependency order: exercises first,
// then plans, workouts and sets, remapping foreign keys as new
// surrogate keys are issued.
func (e *Engine) applySnapshot(ctx context.Context, snap *Snapshot, opts ImportOptions) (*ImportReport, error) {
	report := &ImportReport{}

	exerciseIDs, err := e.importExercises(ctx, snap.Exercises, opts, report)
	if err != nil {
		return nil, err
	}
	planIDs := e.importPlans(ctx, snap.Plans, exerciseIDs, report)
	workoutIDs := e.importWorkouts(ctx, snap.Workouts, exerciseIDs, planIDs, opts, report)
	e.importSets(ctx, snap.Sets, exerciseIDs, workoutIDs, report)

	importProgress := func(recs []*models.ProgressRecord, counter *int) {
		for _, p := range recs {
			rec := *p
			rec.ID = 0
			if _, err := e.store.Add(ctx, storage.CollectionProgress, &rec); err != nil {
				report.Errors = append(report.Errors,
					fmt.Sprintf("progress %q: %v", p.Name, err))
				continue
			}
			*counter++
		}
	}
	importProgress(snap.Goals, &report.Goals)
	importProgress(snap.Measurements, &report.Measurements)
	importProgress(snap.Achievements, &report.Achievements)

	for k, v := range snap.Settings {
		// Seed guards stay local; importing them would suppress seeding
		// on databases that have not seeded yet.
		if strings.HasPrefix(k, "seeded.") {
			continue
		}
		if err := e.store.SetSetting(ctx, k, v); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("setting %q: %v", k, err))
			continue
		}
		report.Settings++
	}

	logger.Info("import finished",
		"exercises", report.Exercises, "plans", report.Plans,
		"workouts", report.Workouts, "sets", report.Sets,
		"skipped", report.Skipped, "errors", len(report.Errors))
	return report, nil
}

// importExercises merges the exercise library and returns a map from
// the snapshot's exercise keys to the keys in this store.
func (e *Engine) importExercises(ctx context.Context, exercises []*models.Exercise, opts ImportOptions, report *ImportReport) (map[int64]int64, error) {
	existing, err := storage.GetAll[models.Exercise](ctx, e.store, storage.CollectionExercises, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(existing))
	for _, ex := range existing {
		byName[strings.ToLower(ex.Name)] = ex.ID
	}

	idMap := make(map[int64]int64, len(exercises))
	for _, src := range exercises {
		if id, ok := byName[strings.ToLower(src.Name)]; ok {
			// Same-named exercise already present: reuse it rather than
			// duplicating the library entry.
			idMap[src.ID] = id
			if opts.SkipDuplicates {
				report.Skipped++
			} else {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("exercise %q already exists, reusing", src.Name))
			}
			continue
		}

		rec := *src
		rec.ID = 0
		rec.IsCustom = true
		newID, err := e.store.Add(ctx, storage.CollectionExercises, &rec)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("exercise %q: %v", src.Name, err))
			continue
		}
		idMap[src.ID] = newID
		byName[strings.ToLower(src.Name)] = newID
		report.Exercises++
	}
	return idMap, nil
}

func (e *Engine) importPlans(ctx context.Context, plans []*models.Plan, exerciseIDs map[int64]int64, report *ImportReport) map[int64]int64 {
	idMap := make(map[int64]int64, len(plans))
	for _, src := range plans {
		rec := *src
		rec.ID = 0
		rec.Exercises = make([]models.PlanExercise, 0, len(src.Exercises))

		ok := true
		for _, pe := range src.Exercises {
			mapped, found := exerciseIDs[pe.ExerciseID]
			if !found {
				report.Errors = append(report.Errors,
					fmt.Sprintf("plan %q: references unknown exercise %d", src.Name, pe.ExerciseID))
				ok = false
				break
			}
			pe.ExerciseID = mapped
			rec.Exercises = append(rec.Exercises, pe)
		}
		if !ok {
			continue
		}

		newID, err := e.store.Add(ctx, storage.CollectionPlans, &rec)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("plan %q: %v", src.Name, err))
			continue
		}
		idMap[src.ID] = newID
		report.Plans++
	}
	return idMap
}

func (e *Engine) importWorkouts(ctx context.Context, workouts []*models.Workout, exerciseIDs, planIDs map[int64]int64, opts ImportOptions, report *ImportReport) map[int64]int64 {
	var existingDates map[string]bool
	if opts.SkipDuplicates {
		existingDates = make(map[string]bool)
		existing, err := storage.GetAll[models.Workout](ctx, e.store, storage.CollectionWorkouts, storage.ListOptions{})
		if err == nil {
			for _, w := range existing {
				existingDates[workoutDupKey(w)] = true
			}
		}
	}

	idMap := make(map[int64]int64, len(workouts))
	for _, src := range workouts {
		if opts.SkipDuplicates && existingDates[workoutDupKey(src)] {
			report.Skipped++
			continue
		}

		rec := *src
		rec.ID = 0
		if src.PlanID != nil {
			if mapped, ok := planIDs[*src.PlanID]; ok {
				rec.PlanID = &mapped
			} else {
				rec.PlanID = nil
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("workout %q: plan %d not in import, link dropped", src.Name, *src.PlanID))
			}
		}

		rec.Exercises = make([]models.WorkoutExercise, 0, len(src.Exercises))
		ok := true
		for _, we := range src.Exercises {
			mapped, found := exerciseIDs[we.ExerciseID]
			if !found {
				report.Errors = append(report.Errors,
					fmt.Sprintf("workout %q: references unknown exercise %d", src.Name, we.ExerciseID))
				ok = false
				break
			}
			we.ExerciseID = mapped
			sets := make([]models.Set, 0, len(we.Sets))
			for _, s := range we.Sets {
				s.ID = 0
				s.ExerciseID = mapped
				sets = append(sets, s)
			}
			we.Sets = sets
			rec.Exercises = append(rec.Exercises, we)
		}
		if !ok {
			continue
		}

		// An imported workout can never adopt the open-session slot.
		if rec.Status == models.WorkoutStatusActive || rec.Status == models.WorkoutStatusPaused {
			rec.Status = models.WorkoutStatusCancelled
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("workout %q: imported as cancelled, was %s", src.Name, src.Status))
		}

		newID, err := e.store.Add(ctx, storage.CollectionWorkouts, &rec)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("workout %q: %v", src.Name, err))
			continue
		}
		// Rewrite the embedded sets' workout key now it is known.
		for i := range rec.Exercises {
			for j := range rec.Exercises[i].Sets {
				rec.Exercises[i].Sets[j].WorkoutID = newID
			}
		}
		if err := e.store.Update(ctx, storage.CollectionWorkouts, &rec); err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("workout %q: embedded set keys not rewritten: %v", src.Name, err))
		}
		idMap[src.ID] = newID
		report.Workouts++
		if existingDates != nil {
			existingDates[workoutDupKey(src)] = true
		}
	}
	return idMap
}

func workoutDupKey(w *models.Workout) string {
	return strings.ToLower(w.Name) + "|" + w.StartTime.UTC().Format(constants.DateFormat)
}

func (e *Engine) importSets(ctx context.Context, sets []*models.Set, exerciseIDs, workoutIDs map[int64]int64, report *ImportReport) {
	for _, src := range sets {
		workoutID, ok := workoutIDs[src.WorkoutID]
		if !ok {
			// The owning workout was skipped or rejected; a dangling set
			// row would never be reachable.
			report.Skipped++
			continue
		}
		exerciseID, ok := exerciseIDs[src.ExerciseID]
		if !ok {
			report.Errors = append(report.Errors,
				fmt.Sprintf("set %d: references unknown exercise %d", src.ID, src.ExerciseID))
			continue
		}

		rec := *src
		rec.ID = 0
		rec.WorkoutID = workoutID
		rec.ExerciseID = exerciseID
		if _, err := e.store.Add(ctx, storage.CollectionSets, &rec); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("set %d: %v", src.ID, err))
			continue
		}
		report.Sets++
	}
}

// Explicit CSV column layouts. Import matches columns by these exact
// header names; unknown headers are reported, never guessed at.
var (
	exerciseCSVHeader = []string{"id", "name", "category", "equipment", "difficulty", "muscle_groups", "is_custom"}
	planCSVHeader     = []string{"id", "name", "category", "difficulty", "type", "exercise_count", "usage_count"}
	workoutCSVHeader  = []string{"id", "name", "start_time", "end_time", "status", "total_sets", "total_reps", "total_volume", "notes"}
	setCSVHeader      = []string{"id", "workout_id", "exercise_id", "reps", "weight", "rpe", "timestamp", "is_warmup"}
	progressCSVHeader = []string{"id", "kind", "name", "date", "value", "unit"}
)

// csvSection is one "# Title" block split into header and data rows.
type csvSection struct {
	title  string
	header []string
	rows   [][]string
}

func parseCSVSections(data []byte) ([]csvSection, error) {
	var sections []csvSection
	var current *csvSection

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			sections = append(sections, csvSection{title: strings.TrimPrefix(line, "# ")})
			current = &sections[len(sections)-1]
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("%w: data before first section header", ErrInvalidShape)
		}

		r := csv.NewReader(strings.NewReader(line))
		fields, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
		}
		if current.header == nil {
			current.header = fields
		} else {
			current.rows = append(current.rows, fields)
		}
	}
	if len(sections) == 0 {
		return nil, ErrInvalidShape
	}
	return sections, nil
}

// columnMap resolves the declared layout against a section's actual
// header, by name. A missing required column fails the whole section.
func columnMap(layout, header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	out := make(map[string]int, len(layout))
	for _, name := range layout {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		out[name] = i
	}
	return out, nil
}

func (e *Engine) importCSV(ctx context.Context, data []byte, opts ImportOptions) (*ImportReport, error) {
	sections, err := parseCSVSections(data)
	if err != nil {
		return nil, err
	}

	// Rebuild a snapshot from the sections, then reuse the JSON import
	// path so dependency ordering and key remapping stay in one place.
	snap := &Snapshot{}
	report := &ImportReport{}

	for _, sec := range sections {
		switch sec.title {
		case "Metadata":
			// informational only
		case "Exercises":
			cols, err := columnMap(exerciseCSVHeader, sec.header)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("section Exercises: %v", err))
				continue
			}
			for _, row := range sec.rows {
				ex, err := exerciseFromRow(row, cols)
				if err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("exercise row: %v", err))
					continue
				}
				snap.Exercises = append(snap.Exercises, ex)
			}
		case "Workouts":
			cols, err := columnMap(workoutCSVHeader, sec.header)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("section Workouts: %v", err))
				continue
			}
			for _, row := range sec.rows {
				w, err := workoutFromRow(row, cols)
				if err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("workout row: %v", err))
					continue
				}
				snap.Workouts = append(snap.Workouts, w)
			}
		case "Sets":
			cols, err := columnMap(setCSVHeader, sec.header)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("section Sets: %v", err))
				continue
			}
			for _, row := range sec.rows {
				s, err := setFromRow(row, cols)
				if err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("set row: %v", err))
					continue
				}
				snap.Sets = append(snap.Sets, s)
			}
		case "Goals", "Measurements", "Achievements":
			cols, err := columnMap(progressCSVHeader, sec.header)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("section %s: %v", sec.title, err))
				continue
			}
			for _, row := range sec.rows {
				p, err := progressFromRow(row, cols)
				if err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("%s row: %v", strings.ToLower(sec.title), err))
					continue
				}
				switch p.Kind {
				case models.ProgressGoal:
					snap.Goals = append(snap.Goals, p)
				case models.ProgressMeasurement:
					snap.Measurements = append(snap.Measurements, p)
				default:
					snap.Achievements = append(snap.Achievements, p)
				}
			}
		case "Plans":
			// The CSV plan block is a summary without exercise slots, so
			// plans cannot round-trip through CSV.
			report.Warnings = append(report.Warnings,
				"plans are not importable from CSV, use a JSON export")
		default:
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("unknown section %q skipped", sec.title))
		}
	}

	applied, err := e.applySnapshot(ctx, snap, opts)
	if err != nil {
		return nil, err
	}
	applied.Errors = append(report.Errors, applied.Errors...)
	applied.Warnings = append(report.Warnings, applied.Warnings...)
	return applied, nil
}

// checkRowLen rejects rows shorter than the header that mapped cols,
// so a truncated row becomes a row error instead of a panic.
func checkRowLen(row []string, cols map[string]int) error {
	want := 0
	for _, i := range cols {
		if i+1 > want {
			want = i + 1
		}
	}
	if len(row) < want {
		return fmt.Errorf("row has %d fields, want %d", len(row), want)
	}
	return nil
}

func exerciseFromRow(row []string, cols map[string]int) (*models.Exercise, error) {
	if err := checkRowLen(row, cols); err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(row[cols["id"]], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad id %q", row[cols["id"]])
	}
	ex := &models.Exercise{
		ID:         id,
		Name:       row[cols["name"]],
		Category:   models.Category(row[cols["category"]]),
		Equipment:  models.Equipment(row[cols["equipment"]]),
		Difficulty: models.Difficulty(row[cols["difficulty"]]),
		IsCustom:   row[cols["is_custom"]] == "true",
	}
	if mg := row[cols["muscle_groups"]]; mg != "" {
		ex.MuscleGroups = strings.Split(mg, "|")
	}
	return ex, nil
}

func workoutFromRow(row []string, cols map[string]int) (*models.Workout, error) {
	if err := checkRowLen(row, cols); err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(row[cols["id"]], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad id %q", row[cols["id"]])
	}
	start, err := time.Parse(time.RFC3339, row[cols["start_time"]])
	if err != nil {
		return nil, fmt.Errorf("bad start_time %q", row[cols["start_time"]])
	}
	w := &models.Workout{
		ID:        id,
		Name:      row[cols["name"]],
		StartTime: start,
		Status:    models.WorkoutStatus(row[cols["status"]]),
		Notes:     row[cols["notes"]],
		Exercises: []models.WorkoutExercise{},
	}
	if v := row[cols["end_time"]]; v != "" {
		end, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("bad end_time %q", v)
		}
		w.EndTime = &end
	}
	return w, nil
}

func setFromRow(row []string, cols map[string]int) (*models.Set, error) {
	if err := checkRowLen(row, cols); err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(row[cols["id"]], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad id %q", row[cols["id"]])
	}
	workoutID, err := strconv.ParseInt(row[cols["workout_id"]], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad workout_id %q", row[cols["workout_id"]])
	}
	exerciseID, err := strconv.ParseInt(row[cols["exercise_id"]], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad exercise_id %q", row[cols["exercise_id"]])
	}
	reps, err := strconv.Atoi(row[cols["reps"]])
	if err != nil {
		return nil, fmt.Errorf("bad reps %q", row[cols["reps"]])
	}
	weight, err := strconv.ParseFloat(row[cols["weight"]], 64)
	if err != nil {
		return nil, fmt.Errorf("bad weight %q", row[cols["weight"]])
	}
	s := &models.Set{
		ID:         id,
		WorkoutID:  workoutID,
		ExerciseID: exerciseID,
		Reps:       reps,
		Weight:     weight,
		Volume:     float64(reps) * weight,
		IsWarmup:   row[cols["is_warmup"]] == "true",
	}
	if v := row[cols["rpe"]]; v != "" {
		rpe, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("bad rpe %q", v)
		}
		s.RPE = &rpe
	}
	if v := row[cols["timestamp"]]; v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q", v)
		}
		s.Timestamp = ts
	}
	return s, nil
}

func progressFromRow(row []string, cols map[string]int) (*models.ProgressRecord, error) {
	if err := checkRowLen(row, cols); err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(row[cols["id"]], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad id %q", row[cols["id"]])
	}
	value, err := strconv.ParseFloat(row[cols["value"]], 64)
	if err != nil {
		return nil, fmt.Errorf("bad value %q", row[cols["value"]])
	}
	p := &models.ProgressRecord{
		ID:    id,
		Kind:  models.ProgressKind(row[cols["kind"]]),
		Name:  row[cols["name"]],
		Value: value,
		Unit:  row[cols["unit"]],
	}
	if v := row[cols["date"]]; v != "" {
		d, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("bad date %q", v)
		}
		p.Date = d
	}
	return p, nil
}
