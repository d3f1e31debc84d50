package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Code classifies failures reported by the identity provider.
type Code string

const (
	CodeEmailAlreadyInUse Code = "email-already-in-use"
	CodeWeakPassword      Code = "weak-password"
	CodeInvalidEmail      Code = "invalid-email"
	CodeUserNotFound      Code = "user-not-found"
	CodeWrongPassword     Code = "wrong-password"
	CodeInvalidCredential Code = "invalid-credential"
	CodeTooManyRequests   Code = "too-many-requests"
	CodeUserDisabled      Code = "user-disabled"
	CodeInvalidToken      Code = "invalid-token"
	CodeSessionEnded      Code = "session-ended"
	CodeUnknown           Code = "unknown"
)

// Error is a structured provider failure.
// Detail carries the provider's raw message and is meant for logs only.
type Error struct {
	Code   Code
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := "identity: " + string(e.Code)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the provider code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Code
	}
	return CodeUnknown
}

// Session is a live authenticated handle for one credential.
type Session struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	IDToken       string
	RefreshToken  string
	ExpiresAt     time.Time

	mu        sync.Mutex
	signedOut bool
}

// Active reports whether the session has not been signed out.
func (s *Session) Active() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.signedOut
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedOut = true
	s.IDToken = ""
	s.RefreshToken = ""
}

// Provider is the external identity service owning credentials,
// password checks, tokens and verification emails.
type Provider interface {
	// CreateCredential registers email/password and returns a signed-in session for it.
	CreateCredential(ctx context.Context, email, password string) (*Session, error)
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	SendVerificationEmail(ctx context.Context, session *Session) error
	SignOut(ctx context.Context, session *Session) error
	// DeleteCredential removes the credential the session belongs to.
	DeleteCredential(ctx context.Context, session *Session) error
	// VerifyToken resolves a bearer ID token to the live session state.
	VerifyToken(ctx context.Context, idToken string) (*Session, error)
}
