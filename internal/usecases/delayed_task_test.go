package usecases

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayedTask_Runs(t *testing.T) {
	var ran atomic.Bool
	task := AfterDelay(5*time.Millisecond, func() { ran.Store(true) })

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
	assert.True(t, ran.Load())
	assert.False(t, task.Cancel(), "cancel after run must report false")
}

func TestDelayedTask_Cancel(t *testing.T) {
	var ran atomic.Bool
	task := AfterDelay(time.Hour, func() { ran.Store(true) })

	require.True(t, task.Cancel())
	select {
	case <-task.Done():
	default:
		t.Fatal("done should be closed after cancel")
	}
	assert.False(t, ran.Load())
	assert.False(t, task.Cancel(), "second cancel is a no-op")
}
