package models

import "time"

type ProgressKind string

const (
	ProgressGoal        ProgressKind = "goal"
	ProgressMeasurement ProgressKind = "measurement"
	ProgressAchievement ProgressKind = "achievement"
)

func ProgressKinds() []ProgressKind {
	return []ProgressKind{ProgressGoal, ProgressMeasurement, ProgressAchievement}
}

// ProgressRecord is a dated value outside the workout graph: a goal, a
// body measurement, or an unlocked achievement.
type ProgressRecord struct {
	ID        int64        `json:"id"`
	Kind      ProgressKind `json:"kind"`
	Name      string       `json:"name"`
	Date      time.Time    `json:"date"`
	Value     float64      `json:"value"`
	Unit      string       `json:"unit,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (p *ProgressRecord) GetID() int64   { return p.ID }
func (p *ProgressRecord) SetID(id int64) { p.ID = id }
func (p *ProgressRecord) Touch(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.Date.IsZero() {
		p.Date = now
	}
	p.UpdatedAt = now
}
