package survey

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"SurveyBot/metrics"
	"SurveyBot/model"
)

const (
	fallbackText       = "Пожалуйста, следуйте инструкциям или используйте команду /start для начала."
	consentRequired    = "Для продолжения требуется согласие на обработку персональных данных."
	submitOKText       = "Спасибо! Ваша анкета сохранена."
	submitFailText     = "Не удалось сохранить анкету. Попробуйте ещё раз позже."
	chooseActionText   = "Пожалуйста, выберите действие."
	deniedText         = "У вас нет прав для этой команды."
	storeFailText      = "Не удалось сохранить изменения. Попробуйте позже."
	clearedText        = "Все анкеты удалены."
	privilegedHelpText = "Доступные команды:\n/whoami — ваш ID\n/export — выгрузка анкет\n/clearall — удалить все анкеты\n/addmod <id> — добавить модератора\n/delmod <id> — удалить модератора"
)

// Inbound is one user message, already stripped of transport detail.
// IsStart marks the explicit begin trigger (the /start command).
type Inbound struct {
	UserID  int64
	ChatID  int64
	Text    string
	IsStart bool
}

// Reply is one outbound prompt. Options, when present, are rendered by the
// transport as suggested replies; File carries an export attachment.
type Reply struct {
	ChatID  int64
	Text    string
	Options []string
	File    *File
}

type File struct {
	Name string
	Data []byte
}

// SubmissionStore persists finished surveys. Upsert must be idempotent:
// repeated calls for the same identity overwrite, never duplicate.
type SubmissionStore interface {
	Upsert(ctx context.Context, sub model.Submission) error
	List(ctx context.Context) ([]model.Submission, error)
	Clear(ctx context.Context) error
}

// Policy answers authorization questions for privileged commands.
type Policy interface {
	IsAdmin(userID int64) bool
	IsModerator(userID int64) bool
	AddModerator(ctx context.Context, userID int64) error
	RemoveModerator(ctx context.Context, userID int64) error
}

// Engine drives the survey state machine: one inbound message in, one
// committed state transition and one reply out. Messages from the same
// identity are serialized; different identities proceed concurrently.
type Engine struct {
	opts     Options
	sessions *Sessions
	store    SubmissionStore
	policy   Policy
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[int64]*userLock
}

// userLock serializes processing for one identity. refs counts current
// holders and waiters so the map entry can be evicted once nobody needs it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewEngine(opts Options, sessions *Sessions, store SubmissionStore, policy Policy, log zerolog.Logger) *Engine {
	return &Engine{
		opts:     opts,
		sessions: sessions,
		store:    store,
		policy:   policy,
		log:      log,
		locks:    make(map[int64]*userLock),
	}
}

// acquireLock takes the per-identity mutex, creating it on first use.
func (e *Engine) acquireLock(userID int64) *userLock {
	e.mu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &userLock{}
		e.locks[userID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return l
}

// releaseLock drops the per-identity mutex and evicts the map entry when no
// other message for the identity holds or awaits it, so the map tracks only
// identities currently being processed.
func (e *Engine) releaseLock(userID int64, l *userLock) {
	l.mu.Unlock()

	e.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(e.locks, userID)
	}
	e.mu.Unlock()
}

// Process handles one inbound message. Privileged commands are dispatched
// before the step machine and never touch survey sessions. The session
// commit always happens before the replies are returned, so the transport
// sends only after the new state is visible.
func (e *Engine) Process(ctx context.Context, in Inbound) []Reply {
	lock := e.acquireLock(in.UserID)
	defer e.releaseLock(in.UserID, lock)

	log := e.log.With().
		Str("correlation_id", uuid.NewString()).
		Int64("user_id", in.UserID).
		Logger()

	if replies, ok := e.dispatchCommand(ctx, log, in); ok {
		return replies
	}
	if in.IsStart {
		return e.handleStart(log, in)
	}

	sess, ok := e.sessions.Get(in.UserID)
	if !ok {
		metrics.MessagesProcessed.WithLabelValues("none", "fallback").Inc()
		return []Reply{{ChatID: in.ChatID, Text: fallbackText}}
	}

	switch sess.CurrentStep {
	case model.StepConsent:
		return e.handleConsent(log, in)
	case model.StepFinalChoice:
		return e.handleFinalChoice(ctx, log, in, sess)
	default:
		return e.handleAnswer(log, in, sess)
	}
}

func (e *Engine) handleStart(log zerolog.Logger, in Inbound) []Reply {
	// Privileged identities never enter the survey flow.
	if e.policy.IsAdmin(in.UserID) || e.policy.IsModerator(in.UserID) {
		return []Reply{{ChatID: in.ChatID, Text: privilegedHelpText}}
	}
	e.sessions.Start(in.UserID)
	metrics.ActiveSessions.Set(float64(e.sessions.Len()))
	log.Info().Msg("survey started")
	text, options := promptFor(e.opts, model.StepConsent, model.Answers{})
	return []Reply{{ChatID: in.ChatID, Text: text, Options: options}}
}

func (e *Engine) handleConsent(log zerolog.Logger, in Inbound) []Reply {
	if strings.TrimSpace(in.Text) != ConsentLabel {
		e.sessions.Clear(in.UserID)
		metrics.ActiveSessions.Set(float64(e.sessions.Len()))
		metrics.MessagesProcessed.WithLabelValues(model.StepConsent.String(), "aborted").Inc()
		log.Info().Msg("consent refused")
		return []Reply{{ChatID: in.ChatID, Text: consentRequired}}
	}
	next := e.opts.firstFormStep()
	e.sessions.Update(in.UserID, func(s *model.Session) {
		s.CurrentStep = next
		s.Answers = model.Answers{}
	})
	metrics.MessagesProcessed.WithLabelValues(model.StepConsent.String(), "ok").Inc()
	text, options := promptFor(e.opts, next, model.Answers{})
	return []Reply{{ChatID: in.ChatID, Text: text, Options: options}}
}

func (e *Engine) handleAnswer(log zerolog.Logger, in Inbound, sess model.Session) []Reply {
	def, ok := steps[sess.CurrentStep]
	if !ok {
		// Unreachable while the table covers every stored step.
		log.Error().Stringer("step", sess.CurrentStep).Msg("no definition for step")
		e.sessions.Clear(in.UserID)
		metrics.ActiveSessions.Set(float64(e.sessions.Len()))
		return []Reply{{ChatID: in.ChatID, Text: fallbackText}}
	}

	value, verr := def.validate(e.opts, in.Text, sess.Answers)
	if verr != nil {
		metrics.MessagesProcessed.WithLabelValues(sess.CurrentStep.String(), "invalid").Inc()
		_, options := promptFor(e.opts, sess.CurrentStep, sess.Answers)
		return []Reply{{ChatID: in.ChatID, Text: verr.Message, Options: options}}
	}

	def.apply(&sess.Answers, value)
	next := def.next(e.opts, sess.Answers)
	if sess.CurrentStep == model.StepSchoolClass && next == model.StepRating {
		// Festival branch: a проф проба answered on an earlier pass must
		// not survive into the record.
		sess.Answers.ProfProb = ""
	}

	answers := sess.Answers
	e.sessions.Update(in.UserID, func(s *model.Session) {
		s.Answers = answers
		s.CurrentStep = next
	})
	metrics.MessagesProcessed.WithLabelValues(sess.CurrentStep.String(), "ok").Inc()

	text, options := promptFor(e.opts, next, answers)
	return []Reply{{ChatID: in.ChatID, Text: text, Options: options}}
}

func (e *Engine) handleFinalChoice(ctx context.Context, log zerolog.Logger, in Inbound, sess model.Session) []Reply {
	switch strings.TrimSpace(in.Text) {
	case SubmitLabel:
		sub := submissionFrom(in.UserID, sess.Answers)
		if err := e.store.Upsert(ctx, sub); err != nil {
			// Session stays at FinalChoice so the user can retry.
			log.Error().Err(err).Msg("submission upsert failed")
			metrics.Submissions.WithLabelValues("error").Inc()
			return []Reply{{ChatID: in.ChatID, Text: submitFailText, Options: []string{SubmitLabel, EditLabel}}}
		}
		e.sessions.Clear(in.UserID)
		metrics.ActiveSessions.Set(float64(e.sessions.Len()))
		metrics.Submissions.WithLabelValues("ok").Inc()
		log.Info().Msg("survey submitted")
		return []Reply{{ChatID: in.ChatID, Text: submitOKText}}
	case EditLabel:
		// Restart the linear tail of the form; consent and event stand.
		e.sessions.Update(in.UserID, func(s *model.Session) {
			s.CurrentStep = model.StepFio
		})
		text, options := promptFor(e.opts, model.StepFio, sess.Answers)
		return []Reply{{ChatID: in.ChatID, Text: text, Options: options}}
	default:
		metrics.MessagesProcessed.WithLabelValues(model.StepFinalChoice.String(), "invalid").Inc()
		text, options := promptFor(e.opts, model.StepFinalChoice, sess.Answers)
		return []Reply{{ChatID: in.ChatID, Text: chooseActionText + "\n\n" + text, Options: options}}
	}
}

func submissionFrom(userID int64, a model.Answers) model.Submission {
	return model.Submission{
		UserID:      userID,
		Event:       a.Event,
		Fio:         a.Fio,
		Phone:       a.Phone,
		SchoolClass: a.SchoolClass,
		ProfProb:    a.ProfProb,
		Rating:      a.Rating,
		Review:      a.Review,
		UpdatedAt:   time.Now().UTC(),
	}
}

// dispatchCommand handles the privileged command grammar. It reports false
// for anything it does not recognize, which then falls through to the
// survey flow.
func (e *Engine) dispatchCommand(ctx context.Context, log zerolog.Logger, in Inbound) ([]Reply, bool) {
	fields := strings.Fields(in.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return nil, false
	}

	switch fields[0] {
	case "/whoami":
		metrics.Commands.WithLabelValues("whoami", "ok").Inc()
		role := ""
		switch {
		case e.policy.IsAdmin(in.UserID):
			role = " (администратор)"
		case e.policy.IsModerator(in.UserID):
			role = " (модератор)"
		}
		return []Reply{{ChatID: in.ChatID, Text: "Ваш ID: " + strconv.FormatInt(in.UserID, 10) + role}}, true

	case "/export":
		if !e.policy.IsAdmin(in.UserID) && !e.policy.IsModerator(in.UserID) {
			metrics.Commands.WithLabelValues("export", "denied").Inc()
			log.Warn().Msg("export denied")
			return []Reply{{ChatID: in.ChatID, Text: deniedText}}, true
		}
		subs, err := e.store.List(ctx)
		if err != nil {
			metrics.Commands.WithLabelValues("export", "error").Inc()
			log.Error().Err(err).Msg("export failed")
			return []Reply{{ChatID: in.ChatID, Text: storeFailText}}, true
		}
		metrics.Commands.WithLabelValues("export", "ok").Inc()
		return []Reply{{ChatID: in.ChatID, File: &File{Name: "submissions.csv", Data: exportCSV(subs)}}}, true

	case "/clearall":
		if !e.policy.IsAdmin(in.UserID) {
			metrics.Commands.WithLabelValues("clearall", "denied").Inc()
			return []Reply{{ChatID: in.ChatID, Text: deniedText}}, true
		}
		if err := e.store.Clear(ctx); err != nil {
			metrics.Commands.WithLabelValues("clearall", "error").Inc()
			log.Error().Err(err).Msg("clear failed")
			return []Reply{{ChatID: in.ChatID, Text: storeFailText}}, true
		}
		metrics.Commands.WithLabelValues("clearall", "ok").Inc()
		log.Info().Msg("submission store cleared")
		return []Reply{{ChatID: in.ChatID, Text: clearedText}}, true

	case "/addmod", "/delmod":
		if !e.policy.IsAdmin(in.UserID) {
			metrics.Commands.WithLabelValues("mod", "denied").Inc()
			return []Reply{{ChatID: in.ChatID, Text: deniedText}}, true
		}
		if len(fields) != 2 {
			return []Reply{{ChatID: in.ChatID, Text: "Использование: " + fields[0] + " <id>"}}, true
		}
		target, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return []Reply{{ChatID: in.ChatID, Text: "Использование: " + fields[0] + " <id>"}}, true
		}
		if fields[0] == "/addmod" {
			err = e.policy.AddModerator(ctx, target)
		} else {
			err = e.policy.RemoveModerator(ctx, target)
		}
		if err != nil {
			metrics.Commands.WithLabelValues("mod", "error").Inc()
			log.Error().Err(err).Int64("target_id", target).Msg("moderator update failed")
			return []Reply{{ChatID: in.ChatID, Text: storeFailText}}, true
		}
		metrics.Commands.WithLabelValues("mod", "ok").Inc()
		if fields[0] == "/addmod" {
			return []Reply{{ChatID: in.ChatID, Text: "Модератор " + fields[1] + " добавлен."}}, true
		}
		return []Reply{{ChatID: in.ChatID, Text: "Модератор " + fields[1] + " удалён."}}, true
	}

	return nil, false
}

func exportCSV(subs []model.Submission) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"telegram_id", "event", "fio", "phone", "school_class", "prof_prob", "rating", "review", "updated_at"})
	for _, s := range subs {
		_ = w.Write([]string{
			strconv.FormatInt(s.UserID, 10),
			s.Event,
			s.Fio,
			s.Phone,
			s.SchoolClass,
			s.ProfProb,
			strconv.Itoa(s.Rating),
			s.Review,
			s.UpdatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	return buf.Bytes()
}
