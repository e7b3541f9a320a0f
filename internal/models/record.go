package models

import "time"

// Record is implemented by every entity persisted in a store collection.
// The store assigns surrogate integer ids and stamps timestamps through
// this interface; ids carry no business meaning.
type Record interface {
	GetID() int64
	SetID(id int64)
	// Touch stamps creation time on first persist and update time on
	// every persist.
	Touch(now time.Time)
}
