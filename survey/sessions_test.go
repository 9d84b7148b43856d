package survey

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SurveyBot/model"
)

func TestSessionsStartResetsPriorSession(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	s.Start(1)
	s.Update(1, func(sess *model.Session) {
		sess.CurrentStep = model.StepPhone
		sess.Answers.Fio = "Иван Иванов"
	})

	fresh := s.Start(1)
	assert.Equal(t, model.StepConsent, fresh.CurrentStep)
	assert.Equal(t, model.Answers{}, fresh.Answers)
	assert.Equal(t, 1, s.Len())
}

func TestSessionsUpdateRefreshesActivity(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	created := s.Start(2)

	time.Sleep(10 * time.Millisecond)
	ok := s.Update(2, func(sess *model.Session) {
		sess.Answers.Fio = "Иван Иванов"
	})
	require.True(t, ok)

	got, exists := s.Get(2)
	require.True(t, exists)
	assert.Equal(t, "Иван Иванов", got.Answers.Fio)
	assert.True(t, got.LastActivityAt.After(created.LastActivityAt))
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestSessionsUpdateMissing(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	assert.False(t, s.Update(3, func(*model.Session) {}))
}

func TestSessionsClear(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	s.Start(4)
	s.Clear(4)
	_, ok := s.Get(4)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestSessionsGetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	s.Start(5)

	got, _ := s.Get(5)
	got.Answers.Fio = "изменено снаружи"

	stored, _ := s.Get(5)
	assert.Empty(t, stored.Answers.Fio)
}

func TestPurgeIdle(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	s.Start(6)
	s.Start(7)

	assert.Zero(t, s.PurgeIdle(time.Hour), "recent sessions survive")
	assert.Equal(t, 2, s.Len())

	purged := s.PurgeIdle(0)
	assert.Equal(t, 2, purged)
	assert.Zero(t, s.Len())
}

func TestSessionsConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewSessions()
	var wg sync.WaitGroup
	for id := int64(0); id < 8; id++ {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Start(id)
				s.Update(id, func(sess *model.Session) {
					sess.CurrentStep = model.StepFio
				})
				s.Get(id)
				s.Clear(id)
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, s.Len())
}
