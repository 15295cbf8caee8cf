package store

import (
	"context"
	"errors"
	"time"

	"github.com/aLoneMass/historybot/internal/domain"
)

// ErrNotFound is returned by Get when a user has no schedule.
var ErrNotFound = errors.New("schedule not found")

// Store holds each user's single active PublicationSchedule. It is the only
// shared mutable structure in the process; implementations must serialize
// mutations so the cancellation interface and the pipeline's flag consumption
// never lose updates.
type Store interface {
	// Put inserts or replaces the user's schedule.
	Put(ctx context.Context, s *domain.PublicationSchedule) error
	// Get returns the user's schedule or ErrNotFound.
	Get(ctx context.Context, userID int64) (*domain.PublicationSchedule, error)
	// Delete removes the user's schedule. Deleting an absent user is a no-op.
	Delete(ctx context.Context, userID int64) error
	// All returns every stored schedule, for restart recovery and diagnostics.
	All(ctx context.Context) ([]domain.PublicationSchedule, error)
	// SetCancelNext marks the user's next occurrence for skipping.
	// No-op (not an error) when the user has no schedule.
	SetCancelNext(ctx context.Context, userID int64) error
	// ConsumeCancelNext atomically reads and clears the cancel flag,
	// returning whether it was set. The read and the reset are one step so a
	// concurrent SetCancelNext is either fully observed or fully left for the
	// next occurrence, never lost.
	ConsumeCancelNext(ctx context.Context, userID int64) (bool, error)
	// SetPending records the armed timer's id and the occurrence's nominal
	// publish instant.
	SetPending(ctx context.Context, userID int64, jobID string, nextAt time.Time) error
	Close() error
}
