package survey

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"SurveyBot/model"
)

// Button labels and fixed values matched verbatim against user input.
const (
	ConsentLabel    = "Согласен"
	SkipReviewLabel = "Пропустить →"
	SubmitLabel     = "Отправить"
	EditLabel       = "Редактировать"
	NoReview        = "Отзыв не предоставлен"
)

var (
	schoolClasses = []string{"8", "9", "10", "11"}
	ratingScale   = []string{"1", "2", "3", "4", "5"}
)

// Options is the injected survey configuration. An empty Events list removes
// the event step; FestivalEvent, when matched, skips the проф проба step.
type Options struct {
	Events        []string
	FestivalEvent string
	ProfProbs     []string
}

// firstFormStep is where consent leads.
func (o Options) firstFormStep() model.Step {
	if len(o.Events) > 0 {
		return model.StepEvent
	}
	return model.StepFio
}

// stepDef describes one survey step: a pure validator, a mutation applying
// the accepted value, and a pure next-step rule. Prompts live in promptFor.
type stepDef struct {
	validate func(o Options, raw string, a model.Answers) (string, *model.ValidationError)
	apply    func(a *model.Answers, value string)
	next     func(o Options, a model.Answers) model.Step
}

func constStep(s model.Step) func(Options, model.Answers) model.Step {
	return func(Options, model.Answers) model.Step { return s }
}

func nonEmpty(raw, errText string) (string, *model.ValidationError) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", &model.ValidationError{Message: errText}
	}
	return v, nil
}

func oneOf(raw string, set []string, errText string) (string, *model.ValidationError) {
	v := strings.TrimSpace(raw)
	if !slices.Contains(set, v) {
		return "", &model.ValidationError{Message: errText}
	}
	return v, nil
}

// steps is the transition table for the answer-collecting states. Consent
// and FinalChoice have their own semantics and are dispatched in the engine.
var steps = map[model.Step]stepDef{
	model.StepEvent: {
		validate: func(o Options, raw string, _ model.Answers) (string, *model.ValidationError) {
			return oneOf(raw, o.Events, "Пожалуйста, выберите мероприятие из списка.")
		},
		apply: func(a *model.Answers, v string) { a.Event = v },
		next:  constStep(model.StepFio),
	},
	model.StepFio: {
		validate: func(_ Options, raw string, _ model.Answers) (string, *model.ValidationError) {
			return nonEmpty(raw, "ФИО не может быть пустым. Пожалуйста, введите ваше ФИО:")
		},
		apply: func(a *model.Answers, v string) { a.Fio = v },
		next:  constStep(model.StepPhone),
	},
	model.StepPhone: {
		validate: func(_ Options, raw string, _ model.Answers) (string, *model.ValidationError) {
			return nonEmpty(raw, "Номер телефона не может быть пустым. Пожалуйста, введите ваш номер телефона:")
		},
		apply: func(a *model.Answers, v string) { a.Phone = v },
		next:  constStep(model.StepSchoolClass),
	},
	model.StepSchoolClass: {
		validate: func(_ Options, raw string, _ model.Answers) (string, *model.ValidationError) {
			return oneOf(raw, schoolClasses, "Пожалуйста, выберите класс обучения из списка.")
		},
		apply: func(a *model.Answers, v string) { a.SchoolClass = v },
		// The single branch point: the festival event has no проф проба.
		next: func(o Options, a model.Answers) model.Step {
			if o.FestivalEvent != "" && a.Event == o.FestivalEvent {
				return model.StepRating
			}
			return model.StepProfProb
		},
	},
	model.StepProfProb: {
		validate: func(o Options, raw string, _ model.Answers) (string, *model.ValidationError) {
			return oneOf(raw, o.ProfProbs, "Пожалуйста, выберите проф пробу из списка.")
		},
		apply: func(a *model.Answers, v string) { a.ProfProb = v },
		next:  constStep(model.StepRating),
	},
	model.StepRating: {
		validate: func(_ Options, raw string, _ model.Answers) (string, *model.ValidationError) {
			return oneOf(raw, ratingScale, "Пожалуйста, выберите оценку от 1 до 5.")
		},
		apply: func(a *model.Answers, v string) { a.Rating, _ = strconv.Atoi(v) },
		next:  constStep(model.StepReview),
	},
	model.StepReview: {
		validate: func(_ Options, raw string, _ model.Answers) (string, *model.ValidationError) {
			if strings.TrimSpace(raw) == SkipReviewLabel {
				return NoReview, nil
			}
			return nonEmpty(raw, "Отзыв не может быть пустым. Пожалуйста, оставьте отзыв или нажмите «"+SkipReviewLabel+"».")
		},
		apply: func(a *model.Answers, v string) { a.Review = v },
		next:  constStep(model.StepFinalChoice),
	},
}

// promptFor renders the prompt and option set for a step.
func promptFor(o Options, step model.Step, a model.Answers) (string, []string) {
	switch step {
	case model.StepConsent:
		return "Вы согласны на обработку персональных данных?", []string{ConsentLabel}
	case model.StepEvent:
		return "Выберите мероприятие:", o.Events
	case model.StepFio:
		return "Пожалуйста, введите ваше ФИО:", nil
	case model.StepPhone:
		return "Введите ваш номер телефона:", nil
	case model.StepSchoolClass:
		return "Выберите ваш класс обучения:", schoolClasses
	case model.StepProfProb:
		return "Выберите проф пробу:", o.ProfProbs
	case model.StepRating:
		return "Оцените выбранную проф пробу от 1 до 5:", ratingScale
	case model.StepReview:
		return "Оставьте отзыв о проф пробе (необязательно):", []string{SkipReviewLabel}
	case model.StepFinalChoice:
		return summary(o, a), []string{SubmitLabel, EditLabel}
	}
	return "", nil
}

// summary renders the collected answers before the final choice. Field
// presence follows the branch taken.
func summary(o Options, a model.Answers) string {
	var b strings.Builder
	b.WriteString("Проверьте ваши данные:\n\n")
	if a.Event != "" {
		fmt.Fprintf(&b, "Мероприятие: %s\n", a.Event)
	}
	fmt.Fprintf(&b, "ФИО: %s\n", a.Fio)
	fmt.Fprintf(&b, "Телефон: %s\n", a.Phone)
	fmt.Fprintf(&b, "Класс: %s\n", a.SchoolClass)
	if a.ProfProb != "" {
		fmt.Fprintf(&b, "Проф проба: %s\n", a.ProfProb)
	}
	fmt.Fprintf(&b, "Оценка: %d\n", a.Rating)
	fmt.Fprintf(&b, "Отзыв: %s", a.Review)
	return b.String()
}
