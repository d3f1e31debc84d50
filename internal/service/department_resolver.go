package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/shift-scheduler/internal/repository"
)

// OtherDepartmentSelector asks signup to link or propose a department by custom name.
const OtherDepartmentSelector = "other"

// KnownDepartment is a fixed department a signup selector may name directly.
type KnownDepartment struct {
	ID   string
	Name string
}

// DefaultKnownDepartments maps signup selector keys to the predefined departments.
func DefaultKnownDepartments() map[string]KnownDepartment {
	return map[string]KnownDepartment{
		"ground_support": {ID: "dept-ground-support", Name: "שירותי קרקע"},
		"security":       {ID: "dept-security", Name: "אבטחה"},
		"maintenance":    {ID: "dept-maintenance", Name: "תחזוקה"},
	}
}

type departmentResolution struct {
	ID         *string
	Name       string
	CustomName *string
}

// resolveDepartment maps a signup selector to a department reference.
// A nil ID with a nil error means the selector did not resolve.
func (s *AccountService) resolveDepartment(ctx context.Context, selector, customName string) (departmentResolution, error) {
	selector = strings.TrimSpace(selector)

	if selector == OtherDepartmentSelector {
		name := strings.TrimSpace(customName)
		dept, err := s.departments.FindByName(ctx, name)
		switch {
		case err == nil:
			id := dept.ID
			return departmentResolution{ID: &id, Name: dept.Name}, nil
		case errors.Is(err, repository.ErrDepartmentNotFound):
			return departmentResolution{Name: name, CustomName: &name}, nil
		default:
			return departmentResolution{}, err
		}
	}

	if known, ok := s.known[selector]; ok {
		id := known.ID
		return departmentResolution{ID: &id, Name: known.Name}, nil
	}

	if selector == "" {
		return departmentResolution{Name: unknownDepartmentName}, nil
	}

	dept, err := s.departments.GetByID(ctx, selector)
	switch {
	case err == nil:
		id := dept.ID
		return departmentResolution{ID: &id, Name: dept.Name}, nil
	case errors.Is(err, repository.ErrDepartmentNotFound):
		return departmentResolution{Name: unknownDepartmentName}, nil
	default:
		return departmentResolution{}, err
	}
}
