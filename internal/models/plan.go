package models

import "time"

type PlanType string

const (
	PlanTypeStrength    PlanType = "strength"
	PlanTypeHypertrophy PlanType = "hypertrophy"
	PlanTypeEndurance   PlanType = "endurance"
	PlanTypeGeneral     PlanType = "general"
)

// PlanExercise is one slot in a plan. Exercises sharing a non-empty
// SupersetGroup are performed back to back.
type PlanExercise struct {
	ExerciseID        int64  `json:"exercise_id"`
	TargetSets        int    `json:"target_sets"`
	TargetReps        int    `json:"target_reps,omitempty"`
	TargetDurationSec int    `json:"target_duration_sec,omitempty"`
	RestTimeSec       int    `json:"rest_time_sec"`
	SupersetGroup     string `json:"superset_group,omitempty"`
}

// PlanSchedule describes when a plan should be performed.
type PlanSchedule struct {
	// Frequency is sessions per week, 1-7.
	Frequency       int      `json:"frequency"`
	Days            []string `json:"days,omitempty"`
	TimeOfDay       string   `json:"time_of_day,omitempty"` // HH:MM
	Active          bool     `json:"active"`
	ReminderLeadMin int      `json:"reminder_lead_min,omitempty"`
}

// Plan is an ordered exercise program. Version increments on every
// update; UsageCount increments each time a workout is started from it.
type Plan struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Difficulty Difficulty     `json:"difficulty"`
	Category   Category       `json:"category"`
	Exercises  []PlanExercise `json:"exercises"`
	Schedule   *PlanSchedule  `json:"schedule,omitempty"`
	UsageCount int            `json:"usage_count"`
	Version    int            `json:"version"`
	IsTemplate bool           `json:"is_template"`
	IsPublic   bool           `json:"is_public"`
	Type       PlanType       `json:"type,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (p *Plan) GetID() int64   { return p.ID }
func (p *Plan) SetID(id int64) { p.ID = id }
func (p *Plan) Touch(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}
