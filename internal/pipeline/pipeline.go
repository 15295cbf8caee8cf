package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aLoneMass/historybot/internal/domain"
	"github.com/aLoneMass/historybot/internal/publish"
	"github.com/aLoneMass/historybot/internal/sched"
	"github.com/aLoneMass/historybot/internal/store"
)

// Chat delivers pipeline notifications to the user. telegram.Router
// implements it.
type Chat interface {
	// SendWarning sends the cancellable pre-publication notice.
	SendWarning(userID int64, publishAt time.Time) error
	SendSkipped(userID int64, next time.Time) error
	SendPublished(userID int64, next time.Time) error
	SendPublishFailed(userID int64, next time.Time) error
}

// Fetcher resolves a media reference to bytes in temporary working storage.
// media.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string) (io.ReadCloser, func(), error)
}

// Config carries the pipeline's timing constants.
type Config struct {
	// WarningLead is the fixed grace period between warning and publish.
	WarningLead time.Duration
	// PublishTimeout bounds the fetch-then-publish step so one stuck call
	// cannot delay cleanup or the next occurrence indefinitely.
	PublishTimeout time.Duration
	// Location is the reference timezone all schedule arithmetic happens in.
	Location *time.Location
}

// Pipeline runs the per-occurrence warn → grace → publish-or-skip →
// reschedule cycle and owns all schedule lifecycle transitions.
type Pipeline struct {
	cfg       Config
	store     store.Store
	sched     *sched.Scheduler
	chat      Chat
	fetch     Fetcher
	transport publish.Transport
	log       *zap.Logger

	// ctx spans the process lifetime; grace delays select against it so
	// shutdown never waits out an open warning window.
	ctx context.Context
}

func New(ctx context.Context, cfg Config, st store.Store, sc *sched.Scheduler, chat Chat, fetch Fetcher, transport publish.Transport, log *zap.Logger) *Pipeline {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		sched:     sc,
		chat:      chat,
		fetch:     fetch,
		transport: transport,
		log:       log,
		ctx:       ctx,
	}
}

// Schedule registers a freshly built schedule, replacing any prior one for
// the same user, and arms the first warning timer. Returns the first
// occurrence's nominal publish instant.
func (p *Pipeline) Schedule(ctx context.Context, s *domain.PublicationSchedule) (time.Time, error) {
	s.NextAt = domain.FirstOccurrence(s.Hour, s.Minute, p.cfg.WarningLead, time.Now(), p.cfg.Location)
	s.CancelNext = false
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if err := p.store.Put(ctx, s); err != nil {
		return time.Time{}, err
	}
	p.arm(ctx, s.UserID, s.NextAt)
	p.log.Info("schedule registered",
		zap.Int64("user_id", s.UserID),
		zap.Int("interval_days", s.IntervalDays),
		zap.Time("first_at", s.NextAt),
	)
	return s.NextAt, nil
}

// Restore re-arms a warning timer for every stored schedule. Nominal instants
// whose warning time has already passed roll forward by the schedule's
// interval until the warning is in the future.
func (p *Pipeline) Restore(ctx context.Context) error {
	all, err := p.store.All(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, s := range all {
		nominal := s.NextAt
		if nominal.IsZero() {
			nominal = domain.FirstOccurrence(s.Hour, s.Minute, p.cfg.WarningLead, now, p.cfg.Location)
		}
		for nominal.Add(-p.cfg.WarningLead).Before(now) {
			nominal = domain.NextOccurrence(nominal, s.IntervalDays)
		}
		p.arm(ctx, s.UserID, nominal)
		p.log.Info("schedule restored",
			zap.Int64("user_id", s.UserID),
			zap.Time("next_at", nominal),
		)
	}
	return nil
}

// CancelNext marks the user's next occurrence for skipping. Safe in any
// pipeline state; a no-op when no schedule exists.
func (p *Pipeline) CancelNext(ctx context.Context, userID int64) error {
	return p.store.SetCancelNext(ctx, userID)
}

// CancelAll tears the user's series down: the armed timer is cancelled and
// the schedule deleted. An in-flight grace timer is left to complete; its
// completion observes the schedule's absence and does nothing.
func (p *Pipeline) CancelAll(ctx context.Context, userID int64) error {
	p.sched.Cancel(userID)
	if err := p.store.Delete(ctx, userID); err != nil {
		return err
	}
	p.log.Info("schedule cancelled", zap.Int64("user_id", userID))
	return nil
}

// Armed reports the user's armed warning timers (zero or one).
func (p *Pipeline) Armed(userID int64) (sched.Entry, bool) {
	for _, e := range p.sched.List() {
		if e.UserID == userID {
			return e, true
		}
	}
	return sched.Entry{}, false
}

// arm installs the warning timer for the occurrence at nominal. The pending
// job id is recorded on the schedule before the timer exists, so even an
// immediately firing occurrence observes its own id.
func (p *Pipeline) arm(ctx context.Context, userID int64, nominal time.Time) {
	jobID := uuid.NewString()
	if err := p.store.SetPending(ctx, userID, jobID, nominal); err != nil {
		p.log.Error("record pending job failed",
			zap.Int64("user_id", userID),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
	warnAt := nominal.Add(-p.cfg.WarningLead)
	p.sched.AddOrReplace(userID, jobID, warnAt, func() {
		p.runOccurrence(userID, jobID, nominal)
	})
}

// runOccurrence is the warning callback: deliver the notice, wait out the
// grace window, then publish or skip. It runs on the timer's goroutine,
// concurrently with other users' occurrences.
func (p *Pipeline) runOccurrence(userID int64, jobID string, nominal time.Time) {
	ctx := p.ctx

	s, err := p.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.log.Error("occurrence aborted: store read failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
		// No schedule: the series was torn down while the timer was in
		// flight. Nothing to do.
		return
	}
	if s.PendingJobID != jobID {
		// The schedule was replaced between expiry and now; the replacement
		// owns the series.
		p.log.Debug("stale warning dropped",
			zap.Int64("user_id", userID), zap.String("job_id", jobID))
		return
	}

	if err := p.chat.SendWarning(userID, nominal); err != nil {
		// The warning is best-effort; the occurrence still runs.
		p.log.Warn("warning delivery failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	grace := time.NewTimer(time.Until(nominal))
	defer grace.Stop()
	select {
	case <-ctx.Done():
		return
	case <-grace.C:
	}

	p.finishOccurrence(ctx, userID, jobID, nominal)
}

// finishOccurrence runs after the grace window: verify this occurrence still
// owns the series, consume the cancel flag exactly once, publish or skip,
// then arm the next occurrence.
func (p *Pipeline) finishOccurrence(ctx context.Context, userID int64, jobID string, nominal time.Time) {
	s, err := p.store.Get(ctx, userID)
	if err != nil {
		// cancel_all won the race against the grace timer: no publish, no
		// reschedule.
		if !errors.Is(err, store.ErrNotFound) {
			p.log.Error("occurrence aborted: store read failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
		return
	}
	if s.PendingJobID != jobID {
		// A Schedule call landed inside this occurrence's grace window and
		// armed its own first occurrence. This one is stale: it must neither
		// consume the replacement's cancel flag, nor publish, nor re-arm.
		p.log.Debug("stale occurrence dropped",
			zap.Int64("user_id", userID), zap.String("job_id", jobID))
		return
	}

	cancelled, err := p.store.ConsumeCancelNext(ctx, userID)
	if err != nil {
		p.log.Error("consume cancel flag failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	published := false
	if cancelled {
		p.log.Info("occurrence skipped",
			zap.Int64("user_id", userID), zap.Time("nominal", nominal))
	} else {
		published = p.publishOnce(ctx, s)
	}

	// Re-check before re-arming: a cancel_all that arrived after the flag
	// check must not resurrect the series, and a replacement registered
	// during the publish must keep its own timer and anchor.
	cur, err := p.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.log.Error("reschedule aborted: store read failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
		return
	}
	if cur.PendingJobID != jobID {
		p.log.Debug("reschedule skipped: occurrence superseded",
			zap.Int64("user_id", userID), zap.String("job_id", jobID))
		return
	}

	next := domain.NextOccurrence(nominal, s.IntervalDays)
	p.arm(ctx, userID, next)
	p.log.Info("occurrence rescheduled",
		zap.Int64("user_id", userID), zap.Time("next_at", next))

	switch {
	case cancelled:
		p.notify(p.chat.SendSkipped(userID, next), userID)
	case published:
		p.notify(p.chat.SendPublished(userID, next), userID)
	default:
		p.notify(p.chat.SendPublishFailed(userID, next), userID)
	}
}

// publishOnce fetches the media bytes and performs the publish action,
// bounded by the publish timeout. Failures are logged and reported but never
// halt the series: the occurrence is failed-not-fatal.
func (p *Pipeline) publishOnce(ctx context.Context, s *domain.PublicationSchedule) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	media, cleanup, err := p.fetch.Fetch(ctx, s.MediaFileID)
	if err != nil {
		p.log.Error("media fetch failed",
			zap.Int64("user_id", s.UserID), zap.Error(err))
		return false
	}
	defer cleanup()

	if err := p.transport.Publish(ctx, s.UserID, media, s.Link); err != nil {
		p.log.Error("publish failed",
			zap.Int64("user_id", s.UserID), zap.Error(err))
		return false
	}

	p.log.Info("published", zap.Int64("user_id", s.UserID))
	return true
}

func (p *Pipeline) notify(err error, userID int64) {
	if err != nil {
		p.log.Warn("notification delivery failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}
