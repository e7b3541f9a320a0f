package manager

import "github.com/liftlog/liftlog/internal/models"

// EpleyOneRepMax estimates a one-rep max from a working set using the
// Epley formula: 1RM = weight x (1 + reps/30). A single rep estimates
// exactly the lifted weight.
func EpleyOneRepMax(weight float64, reps int) float64 {
	if reps <= 0 || weight <= 0 {
		return 0
	}
	if reps == 1 {
		return weight
	}
	return weight * (1 + float64(reps)/30)
}

// ExerciseStats aggregates the history of one exercise across every
// logged set.
type ExerciseStats struct {
	ExerciseID     int64   `json:"exercise_id"`
	TotalSets      int     `json:"total_sets"`
	TotalReps      int     `json:"total_reps"`
	TotalVolume    float64 `json:"total_volume"`
	MaxWeight      float64 `json:"max_weight"`
	MaxReps        int     `json:"max_reps"`
	MaxVolume      float64 `json:"max_volume"`
	EstimatedOneRM float64 `json:"estimated_one_rm"`
}

// PersonalBests names the set(s) that achieved each maximum.
type PersonalBests struct {
	ExerciseID int64        `json:"exercise_id"`
	BestWeight []models.Set `json:"best_weight,omitempty"`
	BestReps   []models.Set `json:"best_reps,omitempty"`
	BestVolume []models.Set `json:"best_volume,omitempty"`
}

func computeStats(exerciseID int64, sets []*models.Set) ExerciseStats {
	stats := ExerciseStats{ExerciseID: exerciseID}
	for _, s := range sets {
		if s.IsWarmup {
			continue
		}
		stats.TotalSets++
		stats.TotalReps += s.Reps
		stats.TotalVolume += s.Volume
		if s.Weight > stats.MaxWeight {
			stats.MaxWeight = s.Weight
		}
		if s.Reps > stats.MaxReps {
			stats.MaxReps = s.Reps
		}
		if s.Volume > stats.MaxVolume {
			stats.MaxVolume = s.Volume
		}
		if est := EpleyOneRepMax(s.Weight, s.Reps); est > stats.EstimatedOneRM {
			stats.EstimatedOneRM = est
		}
	}
	return stats
}

func computePersonalBests(exerciseID int64, sets []*models.Set) PersonalBests {
	pb := PersonalBests{ExerciseID: exerciseID}
	var maxWeight, maxVolume float64
	var maxReps int
	for _, s := range sets {
		if s.IsWarmup {
			continue
		}
		if s.Weight > maxWeight {
			maxWeight = s.Weight
		}
		if s.Reps > maxReps {
			maxReps = s.Reps
		}
		if s.Volume > maxVolume {
			maxVolume = s.Volume
		}
	}
	for _, s := range sets {
		if s.IsWarmup {
			continue
		}
		if maxWeight > 0 && s.Weight == maxWeight {
			pb.BestWeight = append(pb.BestWeight, *s)
		}
		if maxReps > 0 && s.Reps == maxReps {
			pb.BestReps = append(pb.BestReps, *s)
		}
		if maxVolume > 0 && s.Volume == maxVolume {
			pb.BestVolume = append(pb.BestVolume, *s)
		}
	}
	return pb
}
