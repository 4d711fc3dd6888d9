package dto

import (
	"time"

	"github.com/google/uuid"
)

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// ParseOptionalUUID parses s when it is non-nil and non-empty.
func ParseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// RangeQuery is bound from ?from=&to=&limit= on listing endpoints.
type RangeQuery struct {
	From  *time.Time `form:"from"  time_format:"2006-01-02T15:04:05Z07:00"`
	To    *time.Time `form:"to"    time_format:"2006-01-02T15:04:05Z07:00"`
	Limit int        `form:"limit" validate:"min=0,max=1000"`
}
