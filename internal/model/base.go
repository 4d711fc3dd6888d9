package model

import "github.com/google/uuid"

// NewID returns a time-ordered UUID (v7). Ordering by id breaks ties between
// rows written within the same timestamp.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = NewID()
	}
}
