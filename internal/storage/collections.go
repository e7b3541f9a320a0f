package storage

// Collection names. Every record type lives in exactly one collection.
const (
	CollectionExercises = "exercises"
	CollectionWorkouts  = "workouts"
	CollectionPlans     = "plans"
	CollectionSets      = "sets"
	CollectionProgress  = "progress"
)

// Index declares a secondary lookup path over a collection field.
// Text indexes additionally support case-insensitive substring search.
type Index struct {
	Name string
	Path string // json_extract path into the record document
	Text bool
}

// collections is the schema registry: which collections exist and which
// secondary indexes each declares. The migration package creates the
// matching SQLite expression indexes.
var collections = map[string][]Index{
	CollectionExercises: {
		{Name: "category", Path: "$.category"},
		{Name: "difficulty", Path: "$.difficulty"},
		{Name: "is_custom", Path: "$.is_custom"},
		{Name: "name", Path: "$.name", Text: true},
	},
	CollectionWorkouts: {
		{Name: "start_time", Path: "$.start_time"},
		{Name: "status", Path: "$.status"},
		{Name: "plan_id", Path: "$.plan_id"},
	},
	CollectionPlans: {
		{Name: "category", Path: "$.category"},
		{Name: "is_template", Path: "$.is_template"},
		{Name: "name", Path: "$.name", Text: true},
	},
	CollectionSets: {
		{Name: "workout_id", Path: "$.workout_id"},
		{Name: "exercise_id", Path: "$.exercise_id"},
		{Name: "timestamp", Path: "$.timestamp"},
	},
	CollectionProgress: {
		{Name: "kind", Path: "$.kind"},
		{Name: "date", Path: "$.date"},
	},
}

// Collections returns the declared collection names.
func Collections() []string {
	return []string{
		CollectionExercises, CollectionWorkouts, CollectionPlans,
		CollectionSets, CollectionProgress,
	}
}

func findIndex(collection, name string) (Index, bool) {
	for _, idx := range collections[collection] {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}

func knownCollection(name string) bool {
	_, ok := collections[name]
	return ok
}
