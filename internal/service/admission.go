package service

import (
	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/identity"
)

// Admission is the outcome of checking an authenticated account against the
// verification, status and activity gates.
type Admission struct {
	Admitted      bool
	Reason        Reason
	Message       string
	NeedsApproval bool
}

// Admit applies the verification, status and activity gates, in that order,
// to a live session and its profile. Sign-in and bearer-token requests both
// go through it.
func Admit(session *identity.Session, profile *domain.Profile) Admission {
	verified := profile.EmailVerified || (session != nil && session.EmailVerified)
	if !verified && !verificationExempt(profile.Role) {
		return Admission{Reason: ReasonEmailNotVerified, Message: msgEmailNotVerified, NeedsApproval: true}
	}

	switch profile.Status {
	case domain.StatusPending:
		return Admission{Reason: ReasonPendingApproval, Message: msgPendingApproval, NeedsApproval: true}
	case domain.StatusRejected:
		return Admission{Reason: ReasonRejected, Message: msgRejected}
	case domain.StatusApproved:
	default:
		return Admission{Reason: ReasonSignInFailed, Message: msgSignInFailed}
	}

	switch profile.Activity {
	case domain.ActivityDeleted:
		return Admission{Reason: ReasonAccountDeleted, Message: msgAccountDeleted}
	case domain.ActivityActive, domain.ActivityInactive:
	default:
		return Admission{Reason: ReasonSignInFailed, Message: msgSignInFailed}
	}

	return Admission{Admitted: true}
}
