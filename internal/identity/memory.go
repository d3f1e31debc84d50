package identity

import (
	"context"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryProviderOptions tunes the in-memory provider.
type MemoryProviderOptions struct {
	Tokens            *TokenManager
	BcryptCost        int
	MinPasswordLength int
	MaxFailedAttempts int
}

type memoryAccount struct {
	id             string
	email          string
	passwordHash   string
	emailVerified  bool
	disabled       bool
	failedAttempts int
}

// MemoryProvider is a self-contained identity provider for development and tests.
// It keeps credentials, live sessions and sent verification emails in memory.
type MemoryProvider struct {
	mu            sync.Mutex
	opts          MemoryProviderOptions
	byEmail       map[string]*memoryAccount
	byID          map[string]*memoryAccount
	sessions      map[string]string // session id -> subject id
	verifications map[string]int    // subject id -> emails sent
}

// NewMemoryProvider builds a provider with defaults for unset options.
func NewMemoryProvider(opts MemoryProviderOptions) *MemoryProvider {
	if opts.Tokens == nil {
		opts.Tokens = NewTokenManager("dev-secret", 60)
	}
	if opts.BcryptCost <= 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 6
	}
	if opts.MaxFailedAttempts <= 0 {
		opts.MaxFailedAttempts = 5
	}
	return &MemoryProvider{
		opts:          opts,
		byEmail:       make(map[string]*memoryAccount),
		byID:          make(map[string]*memoryAccount),
		sessions:      make(map[string]string),
		verifications: make(map[string]int),
	}
}

var _ Provider = (*MemoryProvider)(nil)

func (p *MemoryProvider) CreateCredential(ctx context.Context, email, password string) (*Session, error) {
	email, ok := normalizeEmail(email)
	if !ok {
		return nil, &Error{Code: CodeInvalidEmail}
	}
	if len(password) < p.opts.MinPasswordLength {
		return nil, &Error{Code: CodeWeakPassword}
	}

	hash, err := hashPassword(password, p.opts.BcryptCost)
	if err != nil {
		return nil, &Error{Code: CodeWeakPassword, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return nil, &Error{Code: CodeEmailAlreadyInUse}
	}
	acc := &memoryAccount{id: uuid.NewString(), email: email, passwordHash: hash}
	p.byEmail[email] = acc
	p.byID[acc.id] = acc

	return p.openSession(acc)
}

func (p *MemoryProvider) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	email, ok := normalizeEmail(email)
	if !ok {
		return nil, &Error{Code: CodeInvalidEmail}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	acc, exists := p.byEmail[email]
	if !exists {
		return nil, &Error{Code: CodeUserNotFound}
	}
	if acc.disabled {
		return nil, &Error{Code: CodeUserDisabled}
	}
	if acc.failedAttempts >= p.opts.MaxFailedAttempts {
		return nil, &Error{Code: CodeTooManyRequests}
	}
	if err := comparePassword(acc.passwordHash, password); err != nil {
		acc.failedAttempts++
		return nil, &Error{Code: CodeWrongPassword}
	}
	acc.failedAttempts = 0

	return p.openSession(acc)
}

func (p *MemoryProvider) SendVerificationEmail(ctx context.Context, session *Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, err := p.liveAccount(session)
	if err != nil {
		return err
	}
	p.verifications[acc.id]++
	return nil
}

func (p *MemoryProvider) SignOut(ctx context.Context, session *Session) error {
	if session == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if claims, err := p.opts.Tokens.ParseToken(session.IDToken); err == nil {
		delete(p.sessions, claims.SessionID)
	}
	session.end()
	return nil
}

func (p *MemoryProvider) DeleteCredential(ctx context.Context, session *Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, err := p.liveAccount(session)
	if err != nil {
		return err
	}
	delete(p.byEmail, acc.email)
	delete(p.byID, acc.id)
	delete(p.verifications, acc.id)
	for sid, subject := range p.sessions {
		if subject == acc.id {
			delete(p.sessions, sid)
		}
	}
	session.end()
	return nil
}

func (p *MemoryProvider) VerifyToken(ctx context.Context, idToken string) (*Session, error) {
	claims, err := p.opts.Tokens.ParseToken(idToken)
	if err != nil {
		return nil, &Error{Code: CodeInvalidToken, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if subject, live := p.sessions[claims.SessionID]; !live || subject != claims.Subject {
		return nil, &Error{Code: CodeSessionEnded}
	}
	acc, ok := p.byID[claims.Subject]
	if !ok {
		return nil, &Error{Code: CodeUserNotFound}
	}
	session := &Session{
		SubjectID:     acc.id,
		Email:         acc.email,
		EmailVerified: acc.emailVerified,
		IDToken:       idToken,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// MarkEmailVerified simulates the user following the verification link.
func (p *MemoryProvider) MarkEmailVerified(email string) bool {
	email, _ = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.byEmail[email]
	if ok {
		acc.emailVerified = true
	}
	return ok
}

// Disable blocks future sign-ins for the credential.
func (p *MemoryProvider) Disable(email string) bool {
	email, _ = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.byEmail[email]
	if ok {
		acc.disabled = true
	}
	return ok
}

// HasCredential reports whether a credential exists for email.
func (p *MemoryProvider) HasCredential(email string) bool {
	email, _ = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.byEmail[email]
	return ok
}

// LiveSessions counts signed-in sessions of a subject.
func (p *MemoryProvider) LiveSessions(subjectID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, subject := range p.sessions {
		if subject == subjectID {
			n++
		}
	}
	return n
}

// VerificationEmailsSent counts verification emails dispatched to a subject.
func (p *MemoryProvider) VerificationEmailsSent(subjectID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verifications[subjectID]
}

// caller holds p.mu
func (p *MemoryProvider) openSession(acc *memoryAccount) (*Session, error) {
	sid := uuid.NewString()
	token, exp, err := p.opts.Tokens.GenerateToken(acc.id, acc.email, acc.emailVerified, sid)
	if err != nil {
		return nil, &Error{Code: CodeUnknown, Err: err}
	}
	p.sessions[sid] = acc.id
	return &Session{
		SubjectID:     acc.id,
		Email:         acc.email,
		EmailVerified: acc.emailVerified,
		IDToken:       token,
		RefreshToken:  uuid.NewString(),
		ExpiresAt:     exp,
	}, nil
}

// caller holds p.mu
func (p *MemoryProvider) liveAccount(session *Session) (*memoryAccount, error) {
	if !session.Active() {
		return nil, &Error{Code: CodeSessionEnded}
	}
	claims, err := p.opts.Tokens.ParseToken(session.IDToken)
	if err != nil {
		return nil, &Error{Code: CodeInvalidToken, Err: err}
	}
	if _, live := p.sessions[claims.SessionID]; !live {
		return nil, &Error{Code: CodeSessionEnded}
	}
	acc, ok := p.byID[claims.Subject]
	if !ok {
		return nil, &Error{Code: CodeUserNotFound}
	}
	return acc, nil
}

func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return email, false
	}
	return email, true
}
