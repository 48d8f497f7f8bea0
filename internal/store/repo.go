package store

import (
	"context"
	"errors"
	"time"

	"github.com/ykvlv/coach-bot/internal/domain"
)

var (
	// ErrNotFound is returned when a profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a profile changed since it was read.
	ErrConflict = errors.New("profile changed concurrently")
)

// CheckInRepo stores daily check-ins.
type CheckInRepo interface {
	// GetRecentCheckIns returns check-ins dated on or after since, oldest first.
	GetRecentCheckIns(ctx context.Context, userID int64, since time.Time) ([]domain.CheckIn, error)
	// UpsertCheckIn creates the day's check-in or merges the recorded metrics into it.
	UpsertCheckIn(ctx context.Context, c *domain.CheckIn) error
}

// ProfileRepo stores user profiles.
type ProfileRepo interface {
	GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error)
	ListActive(ctx context.Context) ([]domain.UserProfile, error)
	UpsertProfile(ctx context.Context, p *domain.UserProfile) error
	// UpdateProfile writes p if the stored version still equals p.Version,
	// bumping the version. Otherwise it returns ErrConflict and writes nothing.
	UpdateProfile(ctx context.Context, p *domain.UserProfile) error
}

// Repo is the full storage surface of the service.
type Repo interface {
	CheckInRepo
	ProfileRepo
	Close() error
}
