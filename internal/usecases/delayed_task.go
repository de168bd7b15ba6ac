package usecases

import (
	"sync"
	"time"
)

// DelayedTask runs a function once after a delay unless it is cancelled first.
// Done is closed when the function has returned or the task was cancelled.
type DelayedTask struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

func AfterDelay(d time.Duration, fn func()) *DelayedTask {
	t := &DelayedTask{done: make(chan struct{})}
	t.timer = time.AfterFunc(d, func() {
		defer t.finish()
		fn()
	})
	return t
}

// Cancel stops the task. It reports whether fn was prevented from running.
func (t *DelayedTask) Cancel() bool {
	if t.timer.Stop() {
		t.finish()
		return true
	}
	return false
}

func (t *DelayedTask) Done() <-chan struct{} {
	return t.done
}

func (t *DelayedTask) finish() {
	t.once.Do(func() { close(t.done) })
}
