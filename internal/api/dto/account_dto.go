package dto

import (
	"time"

	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/identity"
)

// SignUpRequest payload for owner, admin and developer registration.
// DepartmentID holds a selector: a known key, a department id, or "other".
type SignUpRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Role                 string `json:"role"`
	DepartmentID         string `json:"departmentId"`
	CustomDepartmentName string `json:"customDepartmentName"`
}

// WorkerSignUpRequest payload for worker registration.
type WorkerSignUpRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	DepartmentID       string `json:"departmentId"`
	QualificationLevel *int   `json:"qualificationLevel,omitempty"`
}

// SignInRequest payload for sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the session tokens granted on sign-in.
type AuthResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SignUpResponse is the signup workflow outcome.
type SignUpResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reason    string `json:"reason,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
}

// SignInResponse is the sign-in workflow outcome.
type SignInResponse struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	Reason        string           `json:"reason,omitempty"`
	NeedsApproval bool             `json:"needsApproval"`
	Auth          *AuthResponse    `json:"auth,omitempty"`
	Profile       *ProfileResponse `json:"profile,omitempty"`
}

// ProfileResponse is the public view of an account profile.
type ProfileResponse struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"firstName"`
	LastName             string    `json:"lastName"`
	Role                 string    `json:"role"`
	DepartmentID         *string   `json:"departmentId"`
	DepartmentName       string    `json:"departmentName"`
	CustomDepartmentName *string   `json:"customDepartmentName,omitempty"`
	Status               string    `json:"status"`
	EmailVerified        bool      `json:"emailVerified"`
	Activity             string    `json:"activity"`
	IsOfficer            bool      `json:"isOfficer"`
	QualificationLevel   *int      `json:"qualificationLevel,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// NewProfileResponse maps a domain profile.
func NewProfileResponse(p *domain.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		ID:                   p.ID,
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

// NewAuthResponse maps a live session.
func NewAuthResponse(s *identity.Session) *AuthResponse {
	if s == nil {
		return nil
	}
	return &AuthResponse{Token: s.IDToken, RefreshToken: s.RefreshToken, ExpiresAt: s.ExpiresAt}
}

// NewProfileList maps a slice of profiles.
func NewProfileList(profiles []domain.Profile) []*ProfileResponse {
	out := make([]*ProfileResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, NewProfileResponse(&profiles[i]))
	}
	return out
}
