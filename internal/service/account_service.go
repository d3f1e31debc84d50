package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/events"
	"github.com/spec-kit/shift-scheduler/internal/identity"
	"github.com/spec-kit/shift-scheduler/internal/repository"
)

// AccountService runs the signup and approval-gated sign-in workflows.
type AccountService struct {
	provider    identity.Provider
	profiles    repository.ProfileRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	known       map[string]KnownDepartment
	now         func() time.Time
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	Provider         identity.Provider
	ProfileRepo      repository.ProfileRepository
	DepartmentRepo   repository.DepartmentRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	KnownDepartments map[string]KnownDepartment
	Now              func() time.Time
}

// SignUpInput is the owner/admin registration form.
type SignUpInput struct {
	Email                string
	Password             string
	FirstName            string
	LastName             string
	Role                 domain.Role
	DepartmentSelector   string
	CustomDepartmentName string
}

// WorkerSignUpInput is the worker registration form.
type WorkerSignUpInput struct {
	Email              string
	Password           string
	FirstName          string
	LastName           string
	DepartmentID       string
	QualificationLevel *int
}

// SignUpResult is the outcome of a registration attempt.
type SignUpResult struct {
	Success   bool
	Message   string
	Reason    Reason
	ProfileID string
}

// SignInResult is the outcome of a sign-in attempt. Session is live only on success.
type SignInResult struct {
	Success       bool
	Message       string
	Reason        Reason
	NeedsApproval bool
	Session       *identity.Session
	Profile       *domain.Profile
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	known := deps.KnownDepartments
	if known == nil {
		known = DefaultKnownDepartments()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		provider:    deps.Provider,
		profiles:    deps.ProfileRepo,
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		known:       known,
		now:         now,
	}
}

// SignUp registers an owner, admin or developer account. The new account is
// left pending and signed out.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) SignUpResult {
	log := s.logger.With(zap.String("email", in.Email), zap.String("role", string(in.Role)))

	if strings.TrimSpace(in.DepartmentSelector) == OtherDepartmentSelector {
		if in.Role != domain.RoleOwner {
			log.Info("signup rejected: custom department requested by non-owner")
			return signUpFailed(ReasonUnauthorizedDepartment, msgUnauthorizedDepartment)
		}
		if strings.TrimSpace(in.CustomDepartmentName) == "" {
			return signUpFailed(ReasonInvalidDepartment, msgCustomNameRequired)
		}
	}

	session, err := s.provider.CreateCredential(ctx, in.Email, in.Password)
	if err != nil {
		reason, msg := signUpFailure(err)
		log.Info("signup rejected by identity provider", zap.String("code", string(identity.CodeOf(err))), zap.Error(err))
		return signUpFailed(reason, msg)
	}
	log = log.With(zap.String("subject_id", session.SubjectID))

	if err := s.provider.SendVerificationEmail(ctx, session); err != nil {
		log.Error("send verification email", zap.Error(err))
		s.rollbackCredential(ctx, session, log)
		return signUpFailed(ReasonSignUpFailed, msgSignUpFailed)
	}

	dept, err := s.resolveDepartment(ctx, in.DepartmentSelector, in.CustomDepartmentName)
	if err != nil {
		log.Error("resolve department", zap.Error(err))
		s.rollbackCredential(ctx, session, log)
		return signUpFailed(ReasonSignUpFailed, msgSignUpFailed)
	}
	if in.Role.RequiresDepartment() && dept.ID == nil {
		log.Info("signup rejected: department did not resolve", zap.String("selector", in.DepartmentSelector))
		s.rollbackCredential(ctx, session, log)
		return signUpFailed(ReasonInvalidDepartment, msgInvalidDepartment)
	}

	profile := &domain.Profile{
		ID:                   session.SubjectID,
		Email:                session.Email,
		FirstName:            strings.TrimSpace(in.FirstName),
		LastName:             strings.TrimSpace(in.LastName),
		Role:                 in.Role,
		DepartmentID:         dept.ID,
		DepartmentName:       dept.Name,
		CustomDepartmentName: dept.CustomName,
		Status:               domain.StatusPending,
		EmailVerified:        false,
		Activity:             domain.ActivityActive,
		IsOfficer:            false,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		log.Error("persist profile", zap.Error(err))
		s.rollbackCredential(ctx, session, log)
		return signUpFailed(ReasonSignUpFailed, msgSignUpFailed)
	}

	s.endSession(ctx, session, log)
	s.publish(ctx, events.Event{
		Type:      events.EventAccountRegistered,
		SubjectID: profile.ID,
		Payload: events.AccountRegisteredPayload{
			Email:                profile.Email,
			FullName:             profile.FullName(),
			Role:                 profile.Role,
			DepartmentID:         profile.DepartmentID,
			DepartmentName:       profile.DepartmentName,
			CustomDepartmentName: profile.CustomDepartmentName,
		},
	})
	log.Info("account registered", zap.Stringp("department_id", profile.DepartmentID))

	return SignUpResult{Success: true, Message: msgSignUpSuccess, ProfileID: profile.ID}
}

// SignUpWorker registers a worker directly into a known department. No
// verification email is sent.
func (s *AccountService) SignUpWorker(ctx context.Context, in WorkerSignUpInput) SignUpResult {
	log := s.logger.With(zap.String("email", in.Email), zap.String("role", string(domain.RoleWorker)))

	departmentID := strings.TrimSpace(in.DepartmentID)
	if departmentID == "" {
		return signUpFailed(ReasonInvalidDepartment, msgInvalidDepartment)
	}
	dept, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, repository.ErrDepartmentNotFound) {
			log.Info("worker signup rejected: unknown department", zap.String("department_id", departmentID))
			return signUpFailed(ReasonInvalidDepartment, msgInvalidDepartment)
		}
		log.Error("load worker department", zap.Error(err))
		return signUpFailed(ReasonSignUpFailed, msgSignUpFailed)
	}

	level := domain.DefaultQualificationLevel
	if in.QualificationLevel != nil && *in.QualificationLevel > 0 {
		level = *in.QualificationLevel
	}

	session, err := s.provider.CreateCredential(ctx, in.Email, in.Password)
	if err != nil {
		reason, msg := signUpFailure(err)
		log.Info("worker signup rejected by identity provider", zap.String("code", string(identity.CodeOf(err))), zap.Error(err))
		return signUpFailed(reason, msg)
	}
	log = log.With(zap.String("subject_id", session.SubjectID))

	profile := &domain.Profile{
		ID:                 session.SubjectID,
		Email:              session.Email,
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Role:               domain.RoleWorker,
		DepartmentID:       &dept.ID,
		DepartmentName:     dept.Name,
		Status:             domain.StatusPending,
		Activity:           domain.ActivityActive,
		QualificationLevel: &level,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		log.Error("persist worker profile", zap.Error(err))
		s.rollbackCredential(ctx, session, log)
		return signUpFailed(ReasonSignUpFailed, msgSignUpFailed)
	}

	s.endSession(ctx, session, log)
	s.publish(ctx, events.Event{
		Type:      events.EventWorkerRegistered,
		SubjectID: profile.ID,
		Payload: events.WorkerRegisteredPayload{
			Email:              profile.Email,
			FullName:           profile.FullName(),
			DepartmentID:       dept.ID,
			QualificationLevel: level,
		},
	})
	log.Info("worker registered", zap.String("department_id", dept.ID), zap.Int("qualification_level", level))

	return SignUpResult{Success: true, Message: msgWorkerSignUpSuccess, ProfileID: profile.ID}
}

// SignIn authenticates and then applies the profile, verification, status
// and activity gates in order. Any failed gate signs the session out.
func (s *AccountService) SignIn(ctx context.Context, email, password string) SignInResult {
	log := s.logger.With(zap.String("email", email))

	session, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		reason, msg := authenticationFailure(err)
		log.Info("sign-in rejected by identity provider", zap.String("code", string(identity.CodeOf(err))), zap.Error(err))
		return SignInResult{Message: msg, Reason: reason}
	}
	log = log.With(zap.String("subject_id", session.SubjectID))

	profile, err := s.profiles.GetByID(ctx, session.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return s.blockSignIn(ctx, session, log, ReasonProfileNotFound, msgProfileNotFound, false)
		}
		log.Error("load profile", zap.Error(err))
		return s.blockSignIn(ctx, session, log, ReasonSignInFailed, msgSignInFailed, false)
	}

	if session.EmailVerified && !profile.EmailVerified {
		at := s.now().UTC()
		if err := s.profiles.MarkEmailVerified(ctx, profile.ID, at); err != nil {
			log.Warn("sync email verification", zap.Error(err))
		} else {
			profile.EmailVerified = true
			profile.UpdatedAt = at
			s.publish(ctx, events.Event{
				Type:      events.EventEmailVerificationSynced,
				SubjectID: profile.ID,
				Payload:   events.EmailVerificationSyncedPayload{Email: profile.Email},
			})
		}
	}

	if adm := Admit(session, profile); !adm.Admitted {
		if adm.Reason == ReasonSignInFailed {
			log.Error("profile has unknown status or activity",
				zap.String("status", string(profile.Status)), zap.String("activity", string(profile.Activity)))
		}
		return s.blockSignIn(ctx, session, log, adm.Reason, adm.Message, adm.NeedsApproval)
	}

	log.Info("signed in", zap.String("role", string(profile.Role)))
	return SignInResult{
		Success: true,
		Message: msgSignInSuccess,
		Session: session,
		Profile: profile,
	}
}

// SignOut ends the session and returns provider errors to the caller.
func (s *AccountService) SignOut(ctx context.Context, session *identity.Session) error {
	if err := s.provider.SignOut(ctx, session); err != nil {
		s.logger.Error("sign out", zap.Error(err))
		return err
	}
	return nil
}

// GetProfile loads a profile and returns store errors to the caller.
func (s *AccountService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("get profile", zap.String("subject_id", id), zap.Error(err))
		return nil, err
	}
	return profile, nil
}

// PendingApprovals lists profiles waiting for an approval decision.
// Only admins and developers may see them.
func (s *AccountService) PendingApprovals(ctx context.Context, actor *domain.Profile) ([]domain.Profile, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleDeveloper:
	case domain.RoleOwner, domain.RoleWorker:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}
	return s.profiles.ListByStatus(ctx, domain.StatusPending)
}

// DepartmentMembers lists the profiles linked to a department the actor manages.
func (s *AccountService) DepartmentMembers(ctx context.Context, actor *domain.Profile, departmentID string) ([]domain.Profile, error) {
	dept, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if !canManageDepartment(actor, dept) {
		return nil, ErrForbidden
	}
	return s.profiles.ListByDepartment(ctx, dept.ID)
}

func verificationExempt(role domain.Role) bool {
	switch role {
	case domain.RoleDeveloper:
		return true
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleWorker:
		return false
	default:
		return false
	}
}

func signUpFailed(reason Reason, msg string) SignUpResult {
	return SignUpResult{Message: msg, Reason: reason}
}

func (s *AccountService) blockSignIn(ctx context.Context, session *identity.Session, log *zap.Logger, reason Reason, msg string, needsApproval bool) SignInResult {
	s.endSession(ctx, session, log)
	s.publish(ctx, events.Event{
		Type:      events.EventSignInBlocked,
		SubjectID: session.SubjectID,
		Payload:   events.SignInBlockedPayload{Reason: string(reason), NeedsApproval: needsApproval},
	})
	log.Info("sign-in blocked", zap.String("reason", string(reason)), zap.Bool("needs_approval", needsApproval))
	return SignInResult{Message: msg, Reason: reason, NeedsApproval: needsApproval}
}

// rollbackCredential deletes a credential whose profile could not be written.
// It runs even if ctx was cancelled.
func (s *AccountService) rollbackCredential(ctx context.Context, session *identity.Session, log *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	if err := s.provider.DeleteCredential(ctx, session); err != nil {
		log.Error("delete credential after failed signup", zap.Error(err))
		s.endSession(ctx, session, log)
		return
	}
	log.Warn("credential deleted after failed signup")
}

func (s *AccountService) endSession(ctx context.Context, session *identity.Session, log *zap.Logger) {
	if err := s.provider.SignOut(context.WithoutCancel(ctx), session); err != nil {
		log.Warn("forced sign out", zap.Error(err))
	}
}

func (s *AccountService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
