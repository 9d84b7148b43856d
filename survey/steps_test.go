package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SurveyBot/model"
)

func TestValidators(t *testing.T) {
	t.Parallel()

	opts := Options{
		Events:        []string{"Фестиваль профессий", "Экскурсия"},
		FestivalEvent: "Фестиваль профессий",
		ProfProbs:     []string{"Программа 1", "Программа 2"},
	}

	tests := []struct {
		name    string
		step    model.Step
		input   string
		want    string
		wantErr bool
	}{
		{name: "event in list", step: model.StepEvent, input: "Экскурсия", want: "Экскурсия"},
		{name: "event not in list", step: model.StepEvent, input: "Другое", wantErr: true},
		{name: "fio trimmed", step: model.StepFio, input: "  Иван Иванов  ", want: "Иван Иванов"},
		{name: "fio empty", step: model.StepFio, input: "   ", wantErr: true},
		{name: "phone ok", step: model.StepPhone, input: "89990001122", want: "89990001122"},
		{name: "phone empty", step: model.StepPhone, input: "", wantErr: true},
		{name: "class 8", step: model.StepSchoolClass, input: "8", want: "8"},
		{name: "class 11", step: model.StepSchoolClass, input: "11", want: "11"},
		{name: "class 7 rejected", step: model.StepSchoolClass, input: "7", wantErr: true},
		{name: "class text rejected", step: model.StepSchoolClass, input: "восьмой", wantErr: true},
		{name: "prof prob in list", step: model.StepProfProb, input: "Программа 2", want: "Программа 2"},
		{name: "prof prob unknown", step: model.StepProfProb, input: "Программа 9", wantErr: true},
		{name: "rating 1", step: model.StepRating, input: "1", want: "1"},
		{name: "rating 5", step: model.StepRating, input: "5", want: "5"},
		{name: "rating 0 rejected", step: model.StepRating, input: "0", wantErr: true},
		{name: "rating 6 rejected", step: model.StepRating, input: "6", wantErr: true},
		{name: "review text", step: model.StepReview, input: "Понравилось", want: "Понравилось"},
		{name: "review skip sentinel", step: model.StepReview, input: SkipReviewLabel, want: NoReview},
		{name: "review empty rejected", step: model.StepReview, input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			def, ok := steps[tt.step]
			require.True(t, ok)

			got, verr := def.validate(opts, tt.input, model.Answers{})
			if tt.wantErr {
				require.NotNil(t, verr)
				assert.NotEmpty(t, verr.Message)
				return
			}
			require.Nil(t, verr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchoolClassBranch(t *testing.T) {
	t.Parallel()

	opts := Options{
		Events:        []string{"Фестиваль профессий", "Экскурсия"},
		FestivalEvent: "Фестиваль профессий",
		ProfProbs:     []string{"Программа 1"},
	}
	next := steps[model.StepSchoolClass].next

	assert.Equal(t, model.StepRating,
		next(opts, model.Answers{Event: "Фестиваль профессий"}))
	assert.Equal(t, model.StepProfProb,
		next(opts, model.Answers{Event: "Экскурсия"}))
	// No festival configured: always проф проба.
	assert.Equal(t, model.StepProfProb,
		next(Options{ProfProbs: opts.ProfProbs}, model.Answers{}))
}

func TestFirstFormStep(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.StepEvent, Options{Events: []string{"Экскурсия"}}.firstFormStep())
	assert.Equal(t, model.StepFio, Options{}.firstFormStep())
}

func TestRatingApplyParsesInt(t *testing.T) {
	t.Parallel()

	var a model.Answers
	steps[model.StepRating].apply(&a, "4")
	assert.Equal(t, 4, a.Rating)
}

func TestSummaryFollowsBranch(t *testing.T) {
	t.Parallel()

	opts := Options{ProfProbs: []string{"Программа 1"}}
	full := model.Answers{
		Event:       "Экскурсия",
		Fio:         "Иван Иванов",
		Phone:       "89990001122",
		SchoolClass: "10",
		ProfProb:    "Программа 1",
		Rating:      5,
		Review:      NoReview,
	}
	text := summary(opts, full)
	assert.Contains(t, text, "Мероприятие: Экскурсия")
	assert.Contains(t, text, "Проф проба: Программа 1")
	assert.Contains(t, text, "Оценка: 5")

	skipped := full
	skipped.Event = ""
	skipped.ProfProb = ""
	text = summary(opts, skipped)
	assert.NotContains(t, text, "Мероприятие")
	assert.NotContains(t, text, "Проф проба")
	assert.Contains(t, text, "ФИО: Иван Иванов")
}

func TestPromptOptions(t *testing.T) {
	t.Parallel()

	opts := Options{
		Events:    []string{"Экскурсия"},
		ProfProbs: []string{"Программа 1", "Программа 2"},
	}

	_, got := promptFor(opts, model.StepConsent, model.Answers{})
	assert.Equal(t, []string{ConsentLabel}, got)

	_, got = promptFor(opts, model.StepEvent, model.Answers{})
	assert.Equal(t, opts.Events, got)

	_, got = promptFor(opts, model.StepFio, model.Answers{})
	assert.Nil(t, got, "free-text steps carry no options")

	_, got = promptFor(opts, model.StepSchoolClass, model.Answers{})
	assert.Equal(t, schoolClasses, got)

	_, got = promptFor(opts, model.StepProfProb, model.Answers{})
	assert.Equal(t, opts.ProfProbs, got)

	_, got = promptFor(opts, model.StepFinalChoice, model.Answers{})
	assert.Equal(t, []string{SubmitLabel, EditLabel}, got)
}
