package model

// Step is the closed set of survey conversation states. StepSubmitted and
// StepAborted are terminal and never stored in a session.
type Step int

const (
	StepConsent Step = iota
	StepEvent
	StepFio
	StepPhone
	StepSchoolClass
	StepProfProb
	StepRating
	StepReview
	StepFinalChoice
	StepSubmitted
	StepAborted
)

var stepNames = map[Step]string{
	StepConsent:     "consent",
	StepEvent:       "event",
	StepFio:         "fio",
	StepPhone:       "phone",
	StepSchoolClass: "school_class",
	StepProfProb:    "prof_prob",
	StepRating:      "rating",
	StepReview:      "review",
	StepFinalChoice: "final_choice",
	StepSubmitted:   "submitted",
	StepAborted:     "aborted",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}
