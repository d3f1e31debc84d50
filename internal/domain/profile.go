package domain

import (
	"fmt"
	"time"
)

// Role enumerates account roles.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleWorker    Role = "worker"
)

// ParseRole converts a stored or submitted value into a Role.
func ParseRole(v string) (Role, error) {
	switch r := Role(v); r {
	case RoleDeveloper, RoleOwner, RoleAdmin, RoleWorker:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", v)
	}
}

// RequiresDepartment reports whether profiles with this role must reference a department.
func (r Role) RequiresDepartment() bool {
	switch r {
	case RoleOwner:
		return false
	case RoleDeveloper, RoleAdmin, RoleWorker:
		return true
	default:
		return true
	}
}

// ProfileStatus is the admission state of an account.
type ProfileStatus string

const (
	StatusPending  ProfileStatus = "pending"
	StatusApproved ProfileStatus = "approved"
	StatusRejected ProfileStatus = "rejected"
)

// ParseProfileStatus converts a stored value into a ProfileStatus.
func ParseProfileStatus(v string) (ProfileStatus, error) {
	switch s := ProfileStatus(v); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("unknown status %q", v)
	}
}

// Activity is the soft-delete flag of an account.
type Activity string

const (
	ActivityActive   Activity = "active"
	ActivityInactive Activity = "inactive"
	ActivityDeleted  Activity = "deleted"
)

// ParseActivity converts a stored value into an Activity. Missing values read as active.
func ParseActivity(v string) (Activity, error) {
	switch a := Activity(v); a {
	case "":
		return ActivityActive, nil
	case ActivityActive, ActivityInactive, ActivityDeleted:
		return a, nil
	default:
		return "", fmt.Errorf("unknown activity %q", v)
	}
}

// DefaultQualificationLevel applies to workers registered without one.
const DefaultQualificationLevel = 1

// Profile is the application-level record keyed by the credential subject id.
type Profile struct {
	ID                   string
	Email                string
	FirstName            string
	LastName             string
	Role                 Role
	DepartmentID         *string
	DepartmentName       string
	CustomDepartmentName *string
	Status               ProfileStatus
	EmailVerified        bool
	Activity             Activity
	IsOfficer            bool
	QualificationLevel   *int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FullName joins first and last name.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
