package models

import "time"

// Project is a named, persisted graph.
type Project struct {
	ID          string    `json:"id" validate:"required,uuid4"`
	Name        string    `json:"name" validate:"required,min=1,max=255"`
	Description string    `json:"description"`
	Snapshot    *Snapshot `json:"snapshot,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
