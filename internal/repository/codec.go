package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/spec-kit/shift-scheduler/internal/docstore"
	"github.com/spec-kit/shift-scheduler/internal/domain"
)

// Collection names in the document store.
const (
	ProfilesCollection    = "users"
	DepartmentsCollection = "departments"
)

// profileRecord is the stored shape of a profile. Legacy records written
// before activity and isOfficer existed decode with zero values that
// toDomain maps to active / false.
type profileRecord struct {
	Email                string    `json:"email"`
	FirstName            string    `json:"firstName"`
	LastName             string    `json:"lastName"`
	Role                 string    `json:"role"`
	DepartmentID         *string   `json:"departmentId"`
	DepartmentName       string    `json:"departmentName"`
	CustomDepartmentName *string   `json:"customDepartmentName,omitempty"`
	Status               string    `json:"status"`
	EmailVerified        bool      `json:"emailVerified"`
	Activity             string    `json:"activity,omitempty"`
	IsOfficer            bool      `json:"isOfficer"`
	QualificationLevel   *int      `json:"qualificationLevel,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func profileToRecord(p *domain.Profile) profileRecord {
	return profileRecord{
		Email:                p.Email,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		Role:                 string(p.Role),
		DepartmentID:         p.DepartmentID,
		DepartmentName:       p.DepartmentName,
		CustomDepartmentName: p.CustomDepartmentName,
		Status:               string(p.Status),
		EmailVerified:        p.EmailVerified,
		Activity:             string(p.Activity),
		IsOfficer:            p.IsOfficer,
		QualificationLevel:   p.QualificationLevel,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (r profileRecord) toDomain(id string) (*domain.Profile, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	status, err := domain.ParseProfileStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	activity, err := domain.ParseActivity(r.Activity)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	return &domain.Profile{
		ID:                   id,
		Email:                r.Email,
		FirstName:            r.FirstName,
		LastName:             r.LastName,
		Role:                 role,
		DepartmentID:         r.DepartmentID,
		DepartmentName:       r.DepartmentName,
		CustomDepartmentName: r.CustomDepartmentName,
		Status:               status,
		EmailVerified:        r.EmailVerified,
		Activity:             activity,
		IsOfficer:            r.IsOfficer,
		QualificationLevel:   r.QualificationLevel,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}, nil
}

type departmentRecord struct {
	Name       string                     `json:"name"`
	Type       string                     `json:"type,omitempty"`
	OwnerID    string                     `json:"ownerId"`
	Scheduling *domain.SchedulingConfig   `json:"schedulingConfig,omitempty"`
	Settings   *domain.DepartmentSettings `json:"settings,omitempty"`
	CreatedAt  time.Time                  `json:"createdAt"`
	UpdatedAt  time.Time                  `json:"updatedAt"`
}

func departmentToRecord(d *domain.Department) departmentRecord {
	return departmentRecord{
		Name:       d.Name,
		Type:       string(d.Type),
		OwnerID:    d.OwnerID,
		Scheduling: d.Scheduling,
		Settings:   d.Settings,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r departmentRecord) toDomain(id string) *domain.Department {
	return &domain.Department{
		ID:         id,
		Name:       r.Name,
		Type:       domain.DepartmentType(r.Type),
		OwnerID:    r.OwnerID,
		Scheduling: r.Scheduling,
		Settings:   r.Settings,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func encodeRecord(v any) (docstore.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return doc, nil
}

func decodeRecord(doc docstore.Document, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// NormalizeName folds a department name for comparisons: trimmed, NFC, case-folded.
func NormalizeName(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}
