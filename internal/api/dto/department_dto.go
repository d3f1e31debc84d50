package dto

import (
	"time"

	"github.com/spec-kit/shift-scheduler/internal/domain"
)

// DepartmentRequest payload for create and update.
type DepartmentRequest struct {
	Name             string                     `json:"name"`
	Type             string                     `json:"type,omitempty"`
	SchedulingConfig *domain.SchedulingConfig   `json:"schedulingConfig,omitempty"`
	Settings         *domain.DepartmentSettings `json:"settings,omitempty"`
}

// DepartmentResponse is the public view of a department.
type DepartmentResponse struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	Type             string                     `json:"type,omitempty"`
	OwnerID          string                     `json:"ownerId"`
	SchedulingConfig *domain.SchedulingConfig   `json:"schedulingConfig,omitempty"`
	Settings         *domain.DepartmentSettings `json:"settings,omitempty"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

// NewDepartmentResponse maps a domain department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:               d.ID,
		Name:             d.Name,
		Type:             string(d.Type),
		OwnerID:          d.OwnerID,
		SchedulingConfig: d.Scheduling,
		Settings:         d.Settings,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// NewDepartmentList maps a slice of departments.
func NewDepartmentList(depts []domain.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(depts))
	for i := range depts {
		out = append(out, NewDepartmentResponse(&depts[i]))
	}
	return out
}
