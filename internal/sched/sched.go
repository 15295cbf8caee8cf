package sched

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler arms at most one timer per user. Re-registering a user replaces
// any existing timer; callbacks run on their own goroutine so a slow callback
// never blocks timer bookkeeping or other users.
type Scheduler struct {
	mu     sync.Mutex
	timers map[int64]entry
	log    *zap.Logger
}

type entry struct {
	jobID  string
	fireAt time.Time
	timer  *time.Timer
}

// Entry is a List snapshot item.
type Entry struct {
	UserID int64
	JobID  string
	FireAt time.Time
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		timers: make(map[int64]entry),
		log:    log,
	}
}

// AddOrReplace arms a timer firing fn at fireAt, registered under the
// caller-supplied job id. Any previously armed timer for the user is stopped
// first, under the same lock, so two timers for one user never coexist. A
// fireAt in the past fires immediately.
func (s *Scheduler) AddOrReplace(userID int64, jobID string, fireAt time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[userID]; ok {
		old.timer.Stop()
		s.log.Debug("replacing armed timer",
			zap.Int64("user_id", userID),
			zap.String("old_job_id", old.jobID),
		)
	}

	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	t := time.AfterFunc(delay, func() {
		// A timer that was replaced or cancelled between expiry and this
		// point must not run: only the currently registered job may fire.
		s.mu.Lock()
		cur, ok := s.timers[userID]
		if !ok || cur.jobID != jobID {
			s.mu.Unlock()
			return
		}
		delete(s.timers, userID)
		s.mu.Unlock()
		fn()
	})

	s.timers[userID] = entry{jobID: jobID, fireAt: fireAt.UTC(), timer: t}
	s.log.Debug("timer armed",
		zap.Int64("user_id", userID),
		zap.String("job_id", jobID),
		zap.Time("fire_at", fireAt.UTC()),
	)
}

// Cancel stops and removes the user's timer. Cancelling a user with no armed
// timer is a no-op.
func (s *Scheduler) Cancel(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.timers[userID]; ok {
		e.timer.Stop()
		delete(s.timers, userID)
	}
}

// List returns a snapshot of armed timers ordered by fire time.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]Entry, 0, len(s.timers))
	for userID, e := range s.timers {
		res = append(res, Entry{UserID: userID, JobID: e.jobID, FireAt: e.fireAt})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].FireAt.Before(res[j].FireAt) })
	return res
}

// Stop cancels every armed timer. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, userID)
	}
}
