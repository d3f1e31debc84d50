package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/shift-scheduler/internal/docstore"
	"github.com/spec-kit/shift-scheduler/internal/domain"
)

var (
	// ErrDepartmentNotFound is returned when a department lookup misses.
	ErrDepartmentNotFound = errors.New("department not found")
	// ErrDepartmentNameTaken is returned when another department already uses the normalized name.
	ErrDepartmentNameTaken = errors.New("department name already in use")
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	// Put writes dept under its existing ID, replacing any stored record.
	Put(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	Update(ctx context.Context, dept *domain.Department) error
	// UpdateUnique updates dept while holding the lock on its normalized name,
	// the same lock CreateIfAbsent takes.
	UpdateUnique(ctx context.Context, dept *domain.Department) error
	// Delete does not touch profiles that reference the department.
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Department, error)
	ListAll(ctx context.Context) ([]domain.Department, error)
	// FindByName scans every department comparing trimmed, case-folded names.
	FindByName(ctx context.Context, name string) (*domain.Department, error)
	// CreateIfAbsent returns the existing department with the same normalized
	// name, or creates dept. The bool reports whether a new record was created.
	CreateIfAbsent(ctx context.Context, dept *domain.Department) (*domain.Department, bool, error)
}

type departmentRepository struct {
	store docstore.Store
	locks NameLocker
	now   func() time.Time
}

// NewDepartmentRepository builds the repository. locks serializes CreateIfAbsent
// across callers sharing the same locker.
func NewDepartmentRepository(store docstore.Store, locks NameLocker) DepartmentRepository {
	if locks == nil {
		locks = NewMemoryNameLocker()
	}
	return &departmentRepository{store: store, locks: locks, now: time.Now}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	if dept.Scheduling == nil {
		cfg := domain.DefaultSchedulingConfig()
		dept.Scheduling = &cfg
	}
	now := r.now().UTC()
	dept.CreatedAt = now
	dept.UpdatedAt = now

	doc, err := encodeRecord(departmentToRecord(dept))
	if err != nil {
		return err
	}
	id, err := r.store.Add(ctx, DepartmentsCollection, doc)
	if err != nil {
		return err
	}
	dept.ID = id
	return nil
}

func (r *departmentRepository) Put(ctx context.Context, dept *domain.Department) error {
	if dept.ID == "" {
		return errors.New("department id required")
	}
	if dept.Scheduling == nil {
		cfg := domain.DefaultSchedulingConfig()
		dept.Scheduling = &cfg
	}
	now := r.now().UTC()
	if dept.CreatedAt.IsZero() {
		dept.CreatedAt = now
	}
	dept.UpdatedAt = now

	doc, err := encodeRecord(departmentToRecord(dept))
	if err != nil {
		return err
	}
	return r.store.Set(ctx, DepartmentsCollection, dept.ID, doc)
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	if id == "" {
		return nil, ErrDepartmentNotFound
	}
	doc, err := r.store.Get(ctx, DepartmentsCollection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	var rec departmentRecord
	if err := decodeRecord(doc, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(id), nil
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	dept.UpdatedAt = r.now().UTC()
	doc, err := encodeRecord(departmentToRecord(dept))
	if err != nil {
		return err
	}
	// createdAt is never rewritten by an update.
	delete(doc, "createdAt")

	if err := r.store.Update(ctx, DepartmentsCollection, dept.ID, doc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrDepartmentNotFound
		}
		return err
	}
	return nil
}

func (r *departmentRepository) UpdateUnique(ctx context.Context, dept *domain.Department) error {
	key := NormalizeName(dept.Name)
	if key == "" {
		return errors.New("department name required")
	}

	unlock, err := r.locks.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("lock department name: %w", err)
	}
	defer unlock(context.WithoutCancel(ctx))

	existing, err := r.FindByName(ctx, dept.Name)
	switch {
	case err == nil && existing.ID != dept.ID:
		return ErrDepartmentNameTaken
	case err != nil && !errors.Is(err, ErrDepartmentNotFound):
		return err
	}
	return r.Update(ctx, dept)
}

func (r *departmentRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, DepartmentsCollection, id)
}

func (r *departmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Department, error) {
	snaps, err := r.store.Query(ctx, DepartmentsCollection, docstore.Where("ownerId", ownerID))
	if err != nil {
		return nil, err
	}
	return decodeDepartments(snaps)
}

func (r *departmentRepository) ListAll(ctx context.Context) ([]domain.Department, error) {
	snaps, err := r.store.ListAll(ctx, DepartmentsCollection)
	if err != nil {
		return nil, err
	}
	return decodeDepartments(snaps)
}

func (r *departmentRepository) FindByName(ctx context.Context, name string) (*domain.Department, error) {
	want := NormalizeName(name)
	if want == "" {
		return nil, ErrDepartmentNotFound
	}
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if NormalizeName(all[i].Name) == want {
			return &all[i], nil
		}
	}
	return nil, ErrDepartmentNotFound
}

func (r *departmentRepository) CreateIfAbsent(ctx context.Context, dept *domain.Department) (*domain.Department, bool, error) {
	key := NormalizeName(dept.Name)
	if key == "" {
		return nil, false, errors.New("department name required")
	}

	unlock, err := r.locks.Lock(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("lock department name: %w", err)
	}
	defer unlock(context.WithoutCancel(ctx))

	existing, err := r.FindByName(ctx, dept.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrDepartmentNotFound) {
		return nil, false, err
	}
	if err := r.Create(ctx, dept); err != nil {
		return nil, false, err
	}
	return dept, true, nil
}

func decodeDepartments(snaps []docstore.Snapshot) ([]domain.Department, error) {
	result := make([]domain.Department, 0, len(snaps))
	for _, snap := range snaps {
		var rec departmentRecord
		if err := decodeRecord(snap.Data, &rec); err != nil {
			return nil, err
		}
		result = append(result, *rec.toDomain(snap.ID))
	}
	return result, nil
}
