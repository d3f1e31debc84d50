package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/events"
	"github.com/spec-kit/shift-scheduler/internal/repository"
)

var (
	// ErrForbidden is returned when the actor may not perform the operation.
	ErrForbidden = errors.New("operation not permitted")
	// ErrInvalidDepartment is returned for malformed department input.
	ErrInvalidDepartment = errors.New("invalid department")
	// ErrDepartmentNameTaken is returned when a rename collides with another department.
	ErrDepartmentNameTaken = repository.ErrDepartmentNameTaken
)

// DepartmentService exposes authorised department management.
type DepartmentService struct {
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// DepartmentInput carries editable department fields.
type DepartmentInput struct {
	Name       string
	Type       domain.DepartmentType
	Scheduling *domain.SchedulingConfig
	Settings   *domain.DepartmentSettings
}

// NewDepartmentService constructs the service.
func NewDepartmentService(departments repository.DepartmentRepository, dispatcher events.Dispatcher, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{departments: departments, dispatcher: dispatcher, logger: logger}
}

// List returns every department.
func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	return s.departments.ListAll(ctx)
}

// ListOwned returns departments created by actor.
func (s *DepartmentService) ListOwned(ctx context.Context, actor *domain.Profile) ([]domain.Department, error) {
	return s.departments.ListByOwner(ctx, actor.ID)
}

func (s *DepartmentService) Get(ctx context.Context, id string) (*domain.Department, error) {
	return s.departments.GetByID(ctx, id)
}

// FindByName looks a department up by trimmed, case-insensitive name.
func (s *DepartmentService) FindByName(ctx context.Context, name string) (*domain.Department, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidDepartment
	}
	return s.departments.FindByName(ctx, name)
}

// Create adds a department owned by actor, or returns the existing one with
// the same normalized name. The bool reports whether a record was created.
func (s *DepartmentService) Create(ctx context.Context, actor *domain.Profile, input DepartmentInput) (*domain.Department, bool, error) {
	if !canCreateDepartment(actor.Role) {
		return nil, false, ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, false, ErrInvalidDepartment
	}
	deptType := input.Type
	if deptType == "" {
		deptType = domain.DepartmentTypeCustom
	}
	if !validDepartmentType(deptType) {
		return nil, false, ErrInvalidDepartment
	}

	dept, created, err := s.departments.CreateIfAbsent(ctx, &domain.Department{
		Name:       name,
		Type:       deptType,
		OwnerID:    actor.ID,
		Scheduling: input.Scheduling,
		Settings:   input.Settings,
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.publish(ctx, events.EventDepartmentCreated, actor.ID, dept)
		s.logger.Info("department created", zap.String("department_id", dept.ID), zap.String("owner_id", actor.ID))
	}
	return dept, created, nil
}

// Update replaces the editable fields of a department.
func (s *DepartmentService) Update(ctx context.Context, actor *domain.Profile, id string, input DepartmentInput) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageDepartment(actor, dept) {
		return nil, ErrForbidden
	}

	renamed := false
	if name := strings.TrimSpace(input.Name); name != "" {
		renamed = repository.NormalizeName(name) != repository.NormalizeName(dept.Name)
		dept.Name = name
	}
	if input.Type != "" {
		if !validDepartmentType(input.Type) {
			return nil, ErrInvalidDepartment
		}
		dept.Type = input.Type
	}
	if input.Scheduling != nil {
		dept.Scheduling = input.Scheduling
	}
	if input.Settings != nil {
		dept.Settings = input.Settings
	}

	save := s.departments.Update
	if renamed {
		save = s.departments.UpdateUnique
	}
	if err := save(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// Delete removes a department. Profiles that reference it keep the dangling id.
func (s *DepartmentService) Delete(ctx context.Context, actor *domain.Profile, id string) error {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManageDepartment(actor, dept) {
		return ErrForbidden
	}
	if err := s.departments.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EventDepartmentDeleted, actor.ID, dept)
	s.logger.Info("department deleted", zap.String("department_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// SeedPredefined stores the known signup departments that are missing and
// returns how many were written. Existing records are left untouched.
func (s *DepartmentService) SeedPredefined(ctx context.Context, known map[string]KnownDepartment) (int, error) {
	seeded := 0
	for _, k := range known {
		_, err := s.departments.GetByID(ctx, k.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrDepartmentNotFound) {
			return seeded, err
		}
		if err := s.departments.Put(ctx, &domain.Department{
			ID:   k.ID,
			Name: k.Name,
			Type: domain.DepartmentTypePredefined,
		}); err != nil {
			return seeded, err
		}
		seeded++
	}
	if seeded > 0 {
		s.logger.Info("predefined departments seeded", zap.Int("count", seeded))
	}
	return seeded, nil
}

func canCreateDepartment(role domain.Role) bool {
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleDeveloper:
		return true
	case domain.RoleWorker:
		return false
	default:
		return false
	}
}

func canManageDepartment(actor *domain.Profile, dept *domain.Department) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleDeveloper:
		return true
	case domain.RoleOwner:
		return dept.OwnerID == actor.ID
	case domain.RoleWorker:
		return false
	default:
		return false
	}
}

func validDepartmentType(t domain.DepartmentType) bool {
	switch t {
	case domain.DepartmentTypePredefined, domain.DepartmentTypeCustom:
		return true
	default:
		return false
	}
}

func (s *DepartmentService) publish(ctx context.Context, eventType events.EventType, actorID string, dept *domain.Department) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: dept.ID,
		ActorID:   &actorID,
		Timestamp: time.Now().UTC(),
		Payload:   events.DepartmentChangedPayload{Name: dept.Name, OwnerID: dept.OwnerID},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
