package editor

import (
	"sync"
	"time"
)

// Handle identifies a scheduled task. The zero Handle is never issued and is
// safe to Cancel.
type Handle uint64

// Scheduler is a cancellable one-shot task runner. Callers that debounce
// (cancel + reschedule on every new event) hold at most one live Handle at a
// time; the Scheduler itself does not enforce that.
type Scheduler struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[Handle]*time.Timer)}
}

// Schedule runs action once after delay and returns a handle that can cancel
// it. The action runs on a timer goroutine.
func (s *Scheduler) Schedule(delay time.Duration, action func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.timers[h] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, h)
		s.mu.Unlock()
		action()
	})
	return h
}

// Cancel stops a pending task. It reports whether the task was still pending;
// cancelling a fired, already-cancelled, or zero handle is a no-op.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[h]
	if !ok {
		return false
	}
	delete(s.timers, h)
	return t.Stop()
}

// Stop cancels every pending task. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h, t := range s.timers {
		t.Stop()
		delete(s.timers, h)
	}
}
