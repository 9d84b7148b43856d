package model

import "time"

// Answers holds the values collected so far. Event and ProfProb stay empty
// when the branch taken skips their steps; Rating is zero until collected.
type Answers struct {
	Event       string
	Fio         string
	Phone       string
	SchoolClass string
	ProfProb    string
	Rating      int
	Review      string
}

// Session is one user's in-flight survey. A session exists only between the
// begin trigger and a terminal submit, abort or purge.
type Session struct {
	UserID         int64
	CurrentStep    Step
	Answers        Answers
	CreatedAt      time.Time
	LastActivityAt time.Time
}
