// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"dating_bot/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoCandidates is returned by GetPartner when no profile passes the
// requester's filters.
var ErrNoCandidates = errors.New("no eligible candidates")

// ErrReactionAlreadySet is returned when a dating reaction is submitted a
// second time. The check-and-set is atomic so concurrent taps cannot both
// succeed.
var ErrReactionAlreadySet = errors.New("reaction already set")

// Storage is the interface for all persistence operations.
type Storage interface {
	GetUser(ctx context.Context, id int64) (*model.UserProfile, error)
	UpsertUser(ctx context.Context, u *model.ProfileUpdate) error

	CreateImage(ctx context.Context, userID int64, fileID string, kind model.ImageKind) error
	CleanImages(ctx context.Context, userID int64) error
	GetImages(ctx context.Context, userID int64) ([]model.Image, error)

	// GetPartner selects one eligible candidate for the requester,
	// records a fresh dating attempt and returns both.
	GetPartner(ctx context.Context, requester *model.UserProfile) (*model.DatingAttempt, *model.UserProfile, error)

	GetDating(ctx context.Context, id int64) (*model.DatingAttempt, error)
	SetInitiatorReaction(ctx context.Context, id int64, reaction bool) error
	SetPartnerReaction(ctx context.Context, id int64, reaction bool) error
	SetDatingMsgID(ctx context.Context, id int64, msgID int) error

	Close() error
}
