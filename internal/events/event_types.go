package events

import (
	"time"

	"github.com/spec-kit/shift-scheduler/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered       EventType = "account_registered"
	EventWorkerRegistered        EventType = "worker_registered"
	EventEmailVerificationSynced EventType = "email_verification_synced"
	EventSignInBlocked           EventType = "sign_in_blocked"
	EventDepartmentCreated       EventType = "department_created"
	EventDepartmentDeleted       EventType = "department_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	Email                string      `json:"email"`
	FullName             string      `json:"full_name"`
	Role                 domain.Role `json:"role"`
	DepartmentID         *string     `json:"department_id,omitempty"`
	DepartmentName       string      `json:"department_name"`
	CustomDepartmentName *string     `json:"custom_department_name,omitempty"`
}

// WorkerRegisteredPayload payload.
type WorkerRegisteredPayload struct {
	Email              string `json:"email"`
	FullName           string `json:"full_name"`
	DepartmentID       string `json:"department_id"`
	QualificationLevel int    `json:"qualification_level"`
}

// EmailVerificationSyncedPayload payload.
type EmailVerificationSyncedPayload struct {
	Email string `json:"email"`
}

// SignInBlockedPayload payload.
type SignInBlockedPayload struct {
	Reason        string `json:"reason"`
	NeedsApproval bool   `json:"needs_approval"`
}

// DepartmentChangedPayload payload.
type DepartmentChangedPayload struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}
