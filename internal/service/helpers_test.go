package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/shift-scheduler/internal/docstore"
	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/events"
	"github.com/spec-kit/shift-scheduler/internal/identity"
	"github.com/spec-kit/shift-scheduler/internal/repository"
)

// recordingProvider wraps the in-memory provider, recording call order and
// optionally failing selected operations.
type recordingProvider struct {
	*identity.MemoryProvider

	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (p *recordingProvider) record(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, name)
	return p.fail[name]
}

func (p *recordingProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *recordingProvider) FailOn(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[name] = err
}

func (p *recordingProvider) CreateCredential(ctx context.Context, email, password string) (*identity.Session, error) {
	if err := p.record("CreateCredential"); err != nil {
		return nil, err
	}
	return p.MemoryProvider.CreateCredential(ctx, email, password)
}

func (p *recordingProvider) Authenticate(ctx context.Context, email, password string) (*identity.Session, error) {
	if err := p.record("Authenticate"); err != nil {
		return nil, err
	}
	return p.MemoryProvider.Authenticate(ctx, email, password)
}

func (p *recordingProvider) SendVerificationEmail(ctx context.Context, session *identity.Session) error {
	if err := p.record("SendVerificationEmail"); err != nil {
		return err
	}
	return p.MemoryProvider.SendVerificationEmail(ctx, session)
}

func (p *recordingProvider) SignOut(ctx context.Context, session *identity.Session) error {
	if err := p.record("SignOut"); err != nil {
		return err
	}
	return p.MemoryProvider.SignOut(ctx, session)
}

func (p *recordingProvider) DeleteCredential(ctx context.Context, session *identity.Session) error {
	if err := p.record("DeleteCredential"); err != nil {
		return err
	}
	return p.MemoryProvider.DeleteCredential(ctx, session)
}

// faultyProfiles injects failures into profile persistence.
type faultyProfiles struct {
	repository.ProfileRepository

	createErr error
	getErr    error
	markErr   error
	markCalls int
}

func (f *faultyProfiles) Create(ctx context.Context, profile *domain.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.ProfileRepository.Create(ctx, profile)
}

func (f *faultyProfiles) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.ProfileRepository.GetByID(ctx, id)
}

func (f *faultyProfiles) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	return f.ProfileRepository.MarkEmailVerified(ctx, id, at)
}

type accountFixture struct {
	provider    *recordingProvider
	memory      *identity.MemoryProvider
	store       *docstore.MemoryStore
	profiles    *faultyProfiles
	departments repository.DepartmentRepository
	events      *[]events.Event
	svc         *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	memory := identity.NewMemoryProvider(identity.MemoryProviderOptions{
		Tokens:     identity.NewTokenManager("test-secret", 15),
		BcryptCost: bcrypt.MinCost,
	})
	provider := &recordingProvider{MemoryProvider: memory, fail: map[string]error{}}
	store := docstore.NewMemoryStore()
	profiles := &faultyProfiles{ProfileRepository: repository.NewProfileRepository(store)}
	departments := repository.NewDepartmentRepository(store, repository.NewMemoryNameLocker())

	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.Event{}
	for _, et := range []events.EventType{
		events.EventAccountRegistered,
		events.EventWorkerRegistered,
		events.EventEmailVerificationSynced,
		events.EventSignInBlocked,
	} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			*published = append(*published, e)
			return nil
		})
	}

	svc := NewAccountService(AccountDependencies{
		Provider:       provider,
		ProfileRepo:    profiles,
		DepartmentRepo: departments,
		Dispatcher:     dispatcher,
	})
	return &accountFixture{
		provider:    provider,
		memory:      memory,
		store:       store,
		profiles:    profiles,
		departments: departments,
		events:      published,
		svc:         svc,
	}
}

func (f *accountFixture) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(*f.events))
	for _, e := range *f.events {
		out = append(out, e.Type)
	}
	return out
}

// register signs an account up and applies stored field overrides.
func (f *accountFixture) register(t *testing.T, email string, role domain.Role, overrides docstore.Document) string {
	t.Helper()

	res := f.svc.SignUp(context.Background(), SignUpInput{
		Email:              email,
		Password:           "secret-pass",
		FirstName:          "Dana",
		LastName:           "Levi",
		Role:               role,
		DepartmentSelector: "ground_support",
	})
	require.True(t, res.Success, res.Message)
	if len(overrides) > 0 {
		require.NoError(t, f.store.Set(context.Background(), repository.ProfilesCollection, res.ProfileID, overrides, docstore.Merge()))
	}
	f.provider.mu.Lock()
	f.provider.calls = nil
	f.provider.mu.Unlock()
	*f.events = nil
	return res.ProfileID
}
