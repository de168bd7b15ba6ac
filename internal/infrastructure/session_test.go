package infrastructure

import (
	"orderchat/internal/entities"
	"orderchat/internal/usecases"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_CreateGreets(t *testing.T) {
	sm := newTestSessions(newMemStore(), 0)
	defer sm.Close()

	var setupSeen int
	session := sm.Create("owner-1", func(w *usecases.ChatWidget) {
		setupSeen = len(w.Messages())
	})

	assert.Zero(t, setupSeen, "setup runs before the greeting")
	require.Len(t, session.Widget.Messages(), 1)
	assert.Equal(t, usecases.GreetingText, session.Widget.Messages()[0].Text)
	assert.Equal(t, "owner-1", session.Widget.OwnerID())
	assert.Equal(t, 1, sm.Len())
}

func TestSessionManager_GetChecksOwner(t *testing.T) {
	sm := newTestSessions(newMemStore(), 0)
	defer sm.Close()

	session := sm.Create("owner-1", nil)

	got, err := sm.Get(session.ID, "owner-1")
	require.NoError(t, err)
	assert.Same(t, session, got)

	_, err = sm.Get(session.ID, "owner-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = sm.Get("missing", "owner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionManager_GetOrCreateReuses(t *testing.T) {
	sm := newTestSessions(newMemStore(), 0)
	defer sm.Close()

	first := sm.GetOrCreate("tg:1", "tg:1", nil)
	second := sm.GetOrCreate("tg:1", "tg:1", nil)

	assert.Same(t, first, second)
	assert.Len(t, second.Widget.Messages(), 1, "greeted once")
}

func TestSessionManager_Remove(t *testing.T) {
	sm := newTestSessions(newMemStore(), 0)
	defer sm.Close()

	session := sm.Create("owner-1", nil)

	assert.ErrorIs(t, sm.Remove(session.ID, "owner-2"), ErrSessionNotFound)
	require.NoError(t, sm.Remove(session.ID, "owner-1"))
	assert.Zero(t, sm.Len())
	assert.ErrorIs(t, sm.Remove(session.ID, "owner-1"), ErrSessionNotFound)
}

func TestSessionManager_EvictIdle(t *testing.T) {
	sm := newTestSessions(newMemStore(), time.Hour)
	defer sm.Close()

	stale := sm.Create("owner-1", nil)
	fresh := sm.Create("owner-2", nil)

	fresh.Touch()
	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	assert.Equal(t, 1, sm.EvictIdle(time.Now()))
	_, err := sm.Get(stale.ID, "owner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sm.Get(fresh.ID, "owner-2")
	assert.NoError(t, err)
}

func TestCleanupInterval(t *testing.T) {
	assert.Equal(t, 10*time.Second, cleanupInterval(20*time.Second))
	assert.Equal(t, time.Minute, cleanupInterval(30*time.Minute))
}

func TestSessionManager_SlowGreetingDoesNotBlockOthers(t *testing.T) {
	sm := newTestSessions(newMemStore(), 0)
	defer sm.Close()
	other := sm.Create("alice", nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	created := make(chan *UserSession)
	go func() {
		created <- sm.GetOrCreate("tg:1", "tg:1", func(w *usecases.ChatWidget) {
			w.OnAppend(func(entities.Message, []entities.QuickReply) {
				close(entered)
				<-release
			})
		})
	}()
	<-entered

	got := make(chan error, 1)
	go func() {
		_, err := sm.Get(other.ID, "alice")
		got <- err
	}()
	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Get blocked behind a greeting in progress")
	}

	close(release)
	session := <-created
	assert.Len(t, session.Widget.Messages(), 1)
}

func TestSessionManager_ConcurrentGetOrCreateGreetsOnce(t *testing.T) {
	sm := newTestSessions(newMemStore(), 0)
	defer sm.Close()

	var wg sync.WaitGroup
	results := make([]*UserSession, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = sm.GetOrCreate("tg:9", "tg:9", nil)
		}()
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Len(t, results[0].Widget.Messages(), 1)
	assert.Equal(t, 1, sm.Len())
}
