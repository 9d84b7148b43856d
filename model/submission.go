package model

import "time"

// Submission is the persisted form of a finished survey. At most one row
// exists per UserID; a repeated submit overwrites it.
type Submission struct {
	UserID      int64     `json:"userId"`
	Event       string    `json:"event,omitempty"`
	Fio         string    `json:"fio"`
	Phone       string    `json:"phone"`
	SchoolClass string    `json:"schoolClass"`
	ProfProb    string    `json:"profProb,omitempty"`
	Rating      int       `json:"rating"`
	Review      string    `json:"review"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
