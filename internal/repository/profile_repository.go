package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/shift-scheduler/internal/docstore"
	"github.com/spec-kit/shift-scheduler/internal/domain"
)

// ErrProfileNotFound is returned when no profile exists for an id.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository defines persistence access for account profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.Profile, error)
	ListByStatus(ctx context.Context, status domain.ProfileStatus) ([]domain.Profile, error)
}

type profileRepository struct {
	store docstore.Store
	now   func() time.Time
}

// NewProfileRepository returns a document-store backed implementation.
func NewProfileRepository(store docstore.Store) ProfileRepository {
	return &profileRepository{store: store, now: time.Now}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	now := r.now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}
	doc, err := encodeRecord(profileToRecord(profile))
	if err != nil {
		return err
	}
	return r.store.Set(ctx, ProfilesCollection, profile.ID, doc)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	doc, err := r.store.Get(ctx, ProfilesCollection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	var rec profileRecord
	if err := decodeRecord(doc, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(id)
}

// MarkEmailVerified merge-writes only the verification flag and update time.
func (r *profileRepository) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	return r.store.Set(ctx, ProfilesCollection, id, docstore.Document{
		"emailVerified": true,
		"updatedAt":     at.UTC().Format(time.RFC3339Nano),
	}, docstore.Merge())
}

func (r *profileRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Profile, error) {
	return r.query(ctx, docstore.Where("departmentId", departmentID))
}

func (r *profileRepository) ListByStatus(ctx context.Context, status domain.ProfileStatus) ([]domain.Profile, error) {
	return r.query(ctx, docstore.Where("status", string(status)))
}

func (r *profileRepository) query(ctx context.Context, filter docstore.Filter) ([]domain.Profile, error) {
	snaps, err := r.store.Query(ctx, ProfilesCollection, filter)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Profile, 0, len(snaps))
	for _, snap := range snaps {
		var rec profileRecord
		if err := decodeRecord(snap.Data, &rec); err != nil {
			return nil, err
		}
		profile, err := rec.toDomain(snap.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, nil
}
