package models

import "time"

type Category string

const (
	CategoryChest     Category = "chest"
	CategoryBack      Category = "back"
	CategoryShoulders Category = "shoulders"
	CategoryArms      Category = "arms"
	CategoryLegs      Category = "legs"
	CategoryCore      Category = "core"
	CategoryCardio    Category = "cardio"
	CategoryFullBody  Category = "full-body"
)

// Categories lists every valid exercise category in display order.
func Categories() []Category {
	return []Category{
		CategoryChest, CategoryBack, CategoryShoulders, CategoryArms,
		CategoryLegs, CategoryCore, CategoryCardio, CategoryFullBody,
	}
}

// DisplayName returns a human-readable label for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryFullBody:
		return "Full Body"
	case "":
		return "Uncategorized"
	default:
		return strTitle(string(c))
	}
}

type Equipment string

const (
	EquipmentBarbell    Equipment = "barbell"
	EquipmentDumbbell   Equipment = "dumbbell"
	EquipmentMachine    Equipment = "machine"
	EquipmentCable      Equipment = "cable"
	EquipmentBodyweight Equipment = "bodyweight"
	EquipmentKettlebell Equipment = "kettlebell"
	EquipmentBand       Equipment = "band"
	EquipmentOther      Equipment = "other"
)

func EquipmentTypes() []Equipment {
	return []Equipment{
		EquipmentBarbell, EquipmentDumbbell, EquipmentMachine, EquipmentCable,
		EquipmentBodyweight, EquipmentKettlebell, EquipmentBand, EquipmentOther,
	}
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func Difficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
}

// Exercise is a library entry describing a single movement. Built-in
// exercises (IsCustom=false) are seeded on first run and are immutable.
type Exercise struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Category     Category   `json:"category"`
	MuscleGroups []string   `json:"muscle_groups"`
	Equipment    Equipment  `json:"equipment"`
	Difficulty   Difficulty `json:"difficulty"`
	Instructions string     `json:"instructions,omitempty"`
	Tips         []string   `json:"tips,omitempty"`
	Variations   []string   `json:"variations,omitempty"`
	SafetyNotes  string     `json:"safety_notes,omitempty"`
	IsCustom     bool       `json:"is_custom"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (e *Exercise) GetID() int64   { return e.ID }
func (e *Exercise) SetID(id int64) { e.ID = id }
func (e *Exercise) Touch(now time.Time) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

func strTitle(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
