package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shift-scheduler/internal/docstore"
	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/events"
	"github.com/spec-kit/shift-scheduler/internal/identity"
	"github.com/spec-kit/shift-scheduler/internal/repository"
)

func TestSignUp_AdminWithKnownDepartment(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	res := f.svc.SignUp(ctx, SignUpInput{
		Email:              "a@x.com",
		Password:           "secret-pass",
		FirstName:          " Dana ",
		LastName:           "Levi",
		Role:               domain.RoleAdmin,
		DepartmentSelector: "ground_support",
	})
	require.True(t, res.Success)
	require.Equal(t, ReasonNone, res.Reason)
	require.Equal(t, msgSignUpSuccess, res.Message)
	require.NotEmpty(t, res.ProfileID)

	profile, err := f.profiles.GetByID(ctx, res.ProfileID)
	require.NoError(t, err)
	require.NotNil(t, profile.DepartmentID)
	assert.Equal(t, "dept-ground-support", *profile.DepartmentID)
	assert.Equal(t, "שירותי קרקע", profile.DepartmentName)
	assert.Equal(t, domain.StatusPending, profile.Status)
	assert.Equal(t, domain.ActivityActive, profile.Activity)
	assert.Equal(t, "Dana", profile.FirstName)
	assert.False(t, profile.EmailVerified)
	assert.False(t, profile.IsOfficer)
	assert.Nil(t, profile.CustomDepartmentName)

	doc, err := f.store.Get(ctx, repository.ProfilesCollection, res.ProfileID)
	require.NoError(t, err)
	_, present := doc["customDepartmentName"]
	assert.False(t, present)

	assert.Equal(t, []string{"CreateCredential", "SendVerificationEmail", "SignOut"}, f.provider.Calls())
	assert.Equal(t, 1, f.memory.VerificationEmailsSent(res.ProfileID))
	assert.Equal(t, 0, f.memory.LiveSessions(res.ProfileID))
	assert.Equal(t, []events.EventType{events.EventAccountRegistered}, f.eventTypes())
}

func TestSignUp_ExistingDepartmentID(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	dept := &domain.Department{Name: "Ramp Ops", OwnerID: "owner-1"}
	require.NoError(t, f.departments.Create(ctx, dept))

	res := f.svc.SignUp(ctx, SignUpInput{
		Email: "b@x.com", Password: "secret-pass", Role: domain.RoleAdmin, DepartmentSelector: dept.ID,
	})
	require.True(t, res.Success)

	profile, err := f.profiles.GetByID(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, dept.ID, *profile.DepartmentID)
	assert.Equal(t, "Ramp Ops", profile.DepartmentName)
}

func TestSignUp_NonOwnerWithUnresolvedDepartmentRollsBack(t *testing.T) {
	for _, selector := range []string{"no-such-department", ""} {
		t.Run("selector="+selector, func(t *testing.T) {
			f := newAccountFixture(t)
			ctx := context.Background()

			res := f.svc.SignUp(ctx, SignUpInput{
				Email: "c@x.com", Password: "secret-pass", Role: domain.RoleAdmin, DepartmentSelector: selector,
			})
			require.False(t, res.Success)
			assert.Equal(t, ReasonInvalidDepartment, res.Reason)
			assert.Equal(t, msgInvalidDepartment, res.Message)

			assert.False(t, f.memory.HasCredential("c@x.com"))
			assert.Equal(t, []string{"CreateCredential", "SendVerificationEmail", "DeleteCredential"}, f.provider.Calls())

			all, err := f.store.ListAll(ctx, repository.ProfilesCollection)
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, f.eventTypes())
		})
	}
}

func TestSignUp_NonOwnerCustomDepartmentRejectedWithoutSideEffects(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleDeveloper, domain.RoleWorker} {
		t.Run(string(role), func(t *testing.T) {
			f := newAccountFixture(t)

			res := f.svc.SignUp(context.Background(), SignUpInput{
				Email: "d@x.com", Password: "secret-pass", Role: role,
				DepartmentSelector: OtherDepartmentSelector, CustomDepartmentName: "Brand New",
			})
			require.False(t, res.Success)
			assert.Equal(t, ReasonUnauthorizedDepartment, res.Reason)
			assert.Equal(t, msgUnauthorizedDepartment, res.Message)
			assert.Empty(t, f.provider.Calls())
			assert.False(t, f.memory.HasCredential("d@x.com"))
		})
	}
}

func TestSignUp_OwnerBlankCustomNameRejected(t *testing.T) {
	f := newAccountFixture(t)

	res := f.svc.SignUp(context.Background(), SignUpInput{
		Email: "e@x.com", Password: "secret-pass", Role: domain.RoleOwner,
		DepartmentSelector: OtherDepartmentSelector, CustomDepartmentName: "   ",
	})
	require.False(t, res.Success)
	assert.Equal(t, ReasonInvalidDepartment, res.Reason)
	assert.Empty(t, f.provider.Calls())
}

func TestSignUp_OwnerCustomDepartmentLinksOnceCreated(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	first := f.svc.SignUp(ctx, SignUpInput{
		Email: "owner1@x.com", Password: "secret-pass", Role: domain.RoleOwner,
		DepartmentSelector: OtherDepartmentSelector, CustomDepartmentName: "New Ramp ",
	})
	require.True(t, first.Success)

	p1, err := f.profiles.GetByID(ctx, first.ProfileID)
	require.NoError(t, err)
	assert.Nil(t, p1.DepartmentID)
	assert.Equal(t, "New Ramp", p1.DepartmentName)
	require.NotNil(t, p1.CustomDepartmentName)
	assert.Equal(t, "New Ramp", *p1.CustomDepartmentName)

	doc, err := f.store.Get(ctx, repository.ProfilesCollection, first.ProfileID)
	require.NoError(t, err)
	v, present := doc["departmentId"]
	assert.True(t, present)
	assert.Nil(t, v)

	dept := &domain.Department{Name: "New Ramp", OwnerID: first.ProfileID, Type: domain.DepartmentTypeCustom}
	require.NoError(t, f.departments.Create(ctx, dept))

	second := f.svc.SignUp(ctx, SignUpInput{
		Email: "owner2@x.com", Password: "secret-pass", Role: domain.RoleOwner,
		DepartmentSelector: OtherDepartmentSelector, CustomDepartmentName: "  NEW ramp",
	})
	require.True(t, second.Success)

	p2, err := f.profiles.GetByID(ctx, second.ProfileID)
	require.NoError(t, err)
	require.NotNil(t, p2.DepartmentID)
	assert.Equal(t, dept.ID, *p2.DepartmentID)
	assert.Equal(t, "New Ramp", p2.DepartmentName)
	assert.Nil(t, p2.CustomDepartmentName)
}

func TestSignUp_ProviderErrorsMapToMessages(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		reason   Reason
		message  string
	}{
		{name: "duplicate email", email: "taken@x.com", password: "secret-pass", reason: ReasonEmailInUse, message: msgEmailInUse},
		{name: "weak password", email: "f@x.com", password: "123", reason: ReasonWeakPassword, message: msgWeakPassword},
		{name: "invalid email", email: "not-an-email", password: "secret-pass", reason: ReasonInvalidEmail, message: msgInvalidEmail},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAccountFixture(t)
			_, err := f.memory.CreateCredential(context.Background(), "taken@x.com", "secret-pass")
			require.NoError(t, err)

			res := f.svc.SignUp(context.Background(), SignUpInput{
				Email: tc.email, Password: tc.password, Role: domain.RoleAdmin, DepartmentSelector: "ground_support",
			})
			require.False(t, res.Success)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, tc.message, res.Message)
			assert.Equal(t, []string{"CreateCredential"}, f.provider.Calls())
		})
	}

	t.Run("unknown provider failure", func(t *testing.T) {
		f := newAccountFixture(t)
		f.provider.FailOn("CreateCredential", &identity.Error{Code: identity.CodeUnknown, Detail: "OPERATION_NOT_ALLOWED"})

		res := f.svc.SignUp(context.Background(), SignUpInput{
			Email: "g@x.com", Password: "secret-pass", Role: domain.RoleAdmin, DepartmentSelector: "ground_support",
		})
		require.False(t, res.Success)
		assert.Equal(t, ReasonSignUpFailed, res.Reason)
		assert.Equal(t, msgSignUpFailed, res.Message)
		assert.NotContains(t, res.Message, "OPERATION_NOT_ALLOWED")
	})
}

func TestSignUp_VerificationDispatchFailureRollsBack(t *testing.T) {
	f := newAccountFixture(t)
	f.provider.FailOn("SendVerificationEmail", errors.New("smtp down"))

	res := f.svc.SignUp(context.Background(), SignUpInput{
		Email: "h@x.com", Password: "secret-pass", Role: domain.RoleAdmin, DepartmentSelector: "ground_support",
	})
	require.False(t, res.Success)
	assert.Equal(t, ReasonSignUpFailed, res.Reason)
	assert.False(t, f.memory.HasCredential("h@x.com"))
	assert.Equal(t, []string{"CreateCredential", "SendVerificationEmail", "DeleteCredential"}, f.provider.Calls())
}

func TestSignUp_ProfileWriteFailureRollsBack(t *testing.T) {
	f := newAccountFixture(t)
	f.profiles.createErr = errors.New("store unavailable")

	res := f.svc.SignUp(context.Background(), SignUpInput{
		Email: "i@x.com", Password: "secret-pass", Role: domain.RoleOwner,
	})
	require.False(t, res.Success)
	assert.Equal(t, ReasonSignUpFailed, res.Reason)
	assert.False(t, f.memory.HasCredential("i@x.com"))
	assert.Equal(t, []string{"CreateCredential", "SendVerificationEmail", "DeleteCredential"}, f.provider.Calls())
}

func TestSignUp_FailedRollbackStillEndsSession(t *testing.T) {
	f := newAccountFixture(t)
	f.profiles.createErr = errors.New("store unavailable")
	f.provider.FailOn("DeleteCredential", errors.New("provider unavailable"))

	res := f.svc.SignUp(context.Background(), SignUpInput{
		Email: "j@x.com", Password: "secret-pass", Role: domain.RoleOwner,
	})
	require.False(t, res.Success)
	assert.Equal(t, []string{"CreateCredential", "SendVerificationEmail", "DeleteCredential", "SignOut"}, f.provider.Calls())
}

func TestSignUp_FinalSignOutFailureStillSucceeds(t *testing.T) {
	f := newAccountFixture(t)
	f.provider.FailOn("SignOut", errors.New("network"))

	res := f.svc.SignUp(context.Background(), SignUpInput{
		Email: "k@x.com", Password: "secret-pass", Role: domain.RoleAdmin, DepartmentSelector: "security",
	})
	require.True(t, res.Success)
	assert.True(t, f.memory.HasCredential("k@x.com"))
}

func TestSignIn_PendingNeedsApproval(t *testing.T) {
	f := newAccountFixture(t)
	id := f.register(t, "a@x.com", domain.RoleAdmin, nil)
	f.memory.MarkEmailVerified("a@x.com")

	res := f.svc.SignIn(context.Background(), "a@x.com", "secret-pass")
	require.False(t, res.Success)
	assert.True(t, res.NeedsApproval)
	assert.Equal(t, ReasonPendingApproval, res.Reason)
	assert.Equal(t, msgPendingApproval, res.Message)
	assert.Nil(t, res.Session)
	assert.Equal(t, 0, f.memory.LiveSessions(id))
	assert.Equal(t, []string{"Authenticate", "SignOut"}, f.provider.Calls())
	assert.Equal(t, []events.EventType{events.EventEmailVerificationSynced, events.EventSignInBlocked}, f.eventTypes())

	profile, err := f.profiles.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, profile.EmailVerified)
}

func TestSignIn_RejectedIsTerminal(t *testing.T) {
	f := newAccountFixture(t)
	id := f.register(t, "a@x.com", domain.RoleAdmin, docstore.Document{"status": "rejected", "emailVerified": true})

	res := f.svc.SignIn(context.Background(), "a@x.com", "secret-pass")
	require.False(t, res.Success)
	assert.False(t, res.NeedsApproval)
	assert.Equal(t, ReasonRejected, res.Reason)
	assert.Equal(t, msgRejected, res.Message)
	assert.Equal(t, 0, f.memory.LiveSessions(id))
}

func TestSignIn_UnverifiedNeedsApproval(t *testing.T) {
	f := newAccountFixture(t)
	id := f.register(t, "a@x.com", domain.RoleOwner, docstore.Document{"status": "approved"})

	res := f.svc.SignIn(context.Background(), "a@x.com", "secret-pass")
	require.False(t, res.Success)
	assert.True(t, res.NeedsApproval)
	assert.Equal(t, ReasonEmailNotVerified, res.Reason)
	assert.Equal(t, 0, f.memory.LiveSessions(id))
	assert.Zero(t, f.profiles.markCalls)
}

func TestSignIn_SyncsVerificationOnce(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	id := f.register(t, "a@x.com", domain.RoleAdmin, docstore.Document{"status": "approved"})
	f.memory.MarkEmailVerified("a@x.com")

	res := f.svc.SignIn(ctx, "a@x.com", "secret-pass")
	require.True(t, res.Success, res.Message)
	require.NotNil(t, res.Session)
	assert.True(t, res.Session.Active())
	assert.True(t, res.Profile.EmailVerified)
	assert.Equal(t, 1, f.memory.LiveSessions(id))
	assert.Equal(t, 1, f.profiles.markCalls)

	stored, err := f.profiles.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.Equal(t, "שירותי קרקע", stored.DepartmentName)

	again := f.svc.SignIn(ctx, "a@x.com", "secret-pass")
	require.True(t, again.Success)
	assert.Equal(t, 1, f.profiles.markCalls)
}

func TestSignIn_SyncFailureDoesNotBlock(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "a@x.com", domain.RoleAdmin, docstore.Document{"status": "approved"})
	f.memory.MarkEmailVerified("a@x.com")
	f.profiles.markErr = errors.New("write failed")

	res := f.svc.SignIn(context.Background(), "a@x.com", "secret-pass")
	require.True(t, res.Success)
	assert.Equal(t, 1, f.profiles.markCalls)
	assert.NotContains(t, f.eventTypes(), events.EventEmailVerificationSynced)
}

func TestSignIn_StoredVerificationOverridesProvider(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "a@x.com", domain.RoleAdmin, docstore.Document{"status": "approved", "emailVerified": true})

	res := f.svc.SignIn(context.Background(), "a@x.com", "secret-pass")
	require.True(t, res.Success)
	assert.False(t, res.Session.EmailVerified)
	assert.Zero(t, f.profiles.markCalls)
}

func TestSignIn_DeveloperSkipsVerificationGate(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "dev@x.com", domain.RoleDeveloper, docstore.Document{"status": "approved"})

	res := f.svc.SignIn(context.Background(), "dev@x.com", "secret-pass")
	require.True(t, res.Success)
	assert.Equal(t, domain.RoleDeveloper, res.Profile.Role)
}

func TestSignIn_ActivityGate(t *testing.T) {
	tests := []struct {
		activity string
		success  bool
	}{
		{activity: "active", success: true},
		{activity: "inactive", success: true},
		{activity: "deleted", success: false},
	}
	for _, tc := range tests {
		t.Run(tc.activity, func(t *testing.T) {
			f := newAccountFixture(t)
			id := f.register(t, "a@x.com", domain.RoleAdmin, docstore.Document{
				"status": "approved", "emailVerified": true, "activity": tc.activity,
			})

			res := f.svc.SignIn(context.Background(), "a@x.com", "secret-pass")
			require.Equal(t, tc.success, res.Success)
			if !tc.success {
				assert.Equal(t, ReasonAccountDeleted, res.Reason)
				assert.Equal(t, msgAccountDeleted, res.Message)
				assert.False(t, res.NeedsApproval)
				assert.Equal(t, 0, f.memory.LiveSessions(id))
			}
		})
	}
}

func TestSignIn_MissingProfile(t *testing.T) {
	f := newAccountFixture(t)
	session, err := f.memory.CreateCredential(context.Background(), "orphan@x.com", "secret-pass")
	require.NoError(t, err)
	require.NoError(t, f.memory.SignOut(context.Background(), session))

	res := f.svc.SignIn(context.Background(), "orphan@x.com", "secret-pass")
	require.False(t, res.Success)
	assert.Equal(t, ReasonProfileNotFound, res.Reason)
	assert.Equal(t, msgProfileNotFound, res.Message)
	assert.False(t, res.NeedsApproval)
	assert.Equal(t, 0, f.memory.LiveSessions(session.SubjectID))
	assert.Equal(t, []string{"Authenticate", "SignOut"}, f.provider.Calls())
}

func TestSignIn_ProfileLoadErrorIsGeneric(t *testing.T) {
	f := newAccountFixture(t)
	id := f.register(t, "a@x.com", domain.RoleAdmin, nil)
	f.profiles.getErr = errors.New("store unavailable")

	res := f.svc.SignIn(context.Background(), "a@x.com", "secret-pass")
	require.False(t, res.Success)
	assert.Equal(t, ReasonSignInFailed, res.Reason)
	assert.Equal(t, 0, f.memory.LiveSessions(id))
}

func TestSignIn_AuthenticationErrors(t *testing.T) {
	f := newAccountFixture(t)
	f.register(t, "a@x.com", domain.RoleAdmin, docstore.Document{"status": "approved", "emailVerified": true})
	ctx := context.Background()

	res := f.svc.SignIn(ctx, "nobody@x.com", "secret-pass")
	assert.Equal(t, ReasonUserNotFound, res.Reason)
	assert.Equal(t, msgUserNotFound, res.Message)

	res = f.svc.SignIn(ctx, "bad", "secret-pass")
	assert.Equal(t, ReasonInvalidEmail, res.Reason)

	for i := 0; i < 5; i++ {
		res = f.svc.SignIn(ctx, "a@x.com", "wrong-pass")
		require.Equal(t, ReasonWrongPassword, res.Reason)
		require.Equal(t, msgWrongPassword, res.Message)
	}
	res = f.svc.SignIn(ctx, "a@x.com", "secret-pass")
	assert.Equal(t, ReasonTooManyAttempts, res.Reason)
	assert.Equal(t, msgTooManyAttempts, res.Message)
	assert.False(t, res.Success)

	f.provider.FailOn("Authenticate", &identity.Error{Code: identity.CodeInvalidCredential})
	res = f.svc.SignIn(ctx, "a@x.com", "secret-pass")
	assert.Equal(t, ReasonInvalidCredential, res.Reason)

	f.provider.FailOn("Authenticate", errors.New("connection reset"))
	res = f.svc.SignIn(ctx, "a@x.com", "secret-pass")
	assert.Equal(t, ReasonSignInFailed, res.Reason)
	assert.Equal(t, msgSignInFailed, res.Message)
}

func TestSignUpWorker(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	dept := &domain.Department{Name: "Ramp", OwnerID: "owner-1"}
	require.NoError(t, f.departments.Create(ctx, dept))

	res := f.svc.SignUpWorker(ctx, WorkerSignUpInput{
		Email: "w@x.com", Password: "secret-pass", FirstName: "Noa", LastName: "Cohen", DepartmentID: dept.ID,
	})
	require.True(t, res.Success)
	assert.Equal(t, msgWorkerSignUpSuccess, res.Message)

	profile, err := f.profiles.GetByID(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleWorker, profile.Role)
	assert.Equal(t, domain.StatusPending, profile.Status)
	assert.Equal(t, dept.ID, *profile.DepartmentID)
	assert.Equal(t, "Ramp", profile.DepartmentName)
	require.NotNil(t, profile.QualificationLevel)
	assert.Equal(t, domain.DefaultQualificationLevel, *profile.QualificationLevel)

	assert.Equal(t, []string{"CreateCredential", "SignOut"}, f.provider.Calls())
	assert.Equal(t, 0, f.memory.VerificationEmailsSent(res.ProfileID))
	assert.Equal(t, 0, f.memory.LiveSessions(res.ProfileID))
	assert.Equal(t, []events.EventType{events.EventWorkerRegistered}, f.eventTypes())

	level := 3
	res = f.svc.SignUpWorker(ctx, WorkerSignUpInput{
		Email: "w2@x.com", Password: "secret-pass", DepartmentID: dept.ID, QualificationLevel: &level,
	})
	require.True(t, res.Success)
	profile, err = f.profiles.GetByID(ctx, res.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, 3, *profile.QualificationLevel)
}

func TestSignUpWorker_InvalidDepartment(t *testing.T) {
	for _, id := range []string{"", "  ", "missing"} {
		f := newAccountFixture(t)

		res := f.svc.SignUpWorker(context.Background(), WorkerSignUpInput{
			Email: "w@x.com", Password: "secret-pass", DepartmentID: id,
		})
		require.False(t, res.Success)
		assert.Equal(t, ReasonInvalidDepartment, res.Reason)
		assert.Empty(t, f.provider.Calls())
		assert.False(t, f.memory.HasCredential("w@x.com"))
	}
}

func TestSignUpWorker_ProfileWriteFailureRollsBack(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	dept := &domain.Department{Name: "Ramp"}
	require.NoError(t, f.departments.Create(ctx, dept))
	f.profiles.createErr = errors.New("store unavailable")

	res := f.svc.SignUpWorker(ctx, WorkerSignUpInput{Email: "w@x.com", Password: "secret-pass", DepartmentID: dept.ID})
	require.False(t, res.Success)
	assert.False(t, f.memory.HasCredential("w@x.com"))
	assert.Equal(t, []string{"CreateCredential", "DeleteCredential"}, f.provider.Calls())
}

func TestSignOutAndGetProfilePassErrorsThrough(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetProfile(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrProfileNotFound)

	boom := errors.New("network")
	f.provider.FailOn("SignOut", boom)
	require.ErrorIs(t, f.svc.SignOut(ctx, &identity.Session{}), boom)
}
