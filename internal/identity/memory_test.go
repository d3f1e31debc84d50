package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestMemoryProvider() *MemoryProvider {
	return NewMemoryProvider(MemoryProviderOptions{BcryptCost: bcrypt.MinCost, MaxFailedAttempts: 3})
}

func TestMemoryProvider_CreateCredential(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and signs in", func(t *testing.T) {
		p := newTestMemoryProvider()
		s, err := p.CreateCredential(ctx, " A@X.com ", "secret123")
		require.NoError(t, err)
		require.NotEmpty(t, s.SubjectID)
		require.Equal(t, "a@x.com", s.Email)
		require.False(t, s.EmailVerified)
		require.True(t, s.Active())
		require.Equal(t, 1, p.LiveSessions(s.SubjectID))
	})

	t.Run("duplicate email", func(t *testing.T) {
		p := newTestMemoryProvider()
		_, err := p.CreateCredential(ctx, "a@x.com", "secret123")
		require.NoError(t, err)
		_, err = p.CreateCredential(ctx, "A@x.com", "secret123")
		require.Equal(t, CodeEmailAlreadyInUse, CodeOf(err))
	})

	t.Run("weak password", func(t *testing.T) {
		p := newTestMemoryProvider()
		_, err := p.CreateCredential(ctx, "a@x.com", "123")
		require.Equal(t, CodeWeakPassword, CodeOf(err))
	})

	t.Run("invalid email", func(t *testing.T) {
		p := newTestMemoryProvider()
		for _, email := range []string{"not-an-email", "a@x", "Dana <a@x.com>"} {
			_, err := p.CreateCredential(ctx, email, "secret123")
			require.Equal(t, CodeInvalidEmail, CodeOf(err), email)
		}
	})
}

func TestMemoryProvider_Authenticate(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()
	created, err := p.CreateCredential(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = p.Authenticate(ctx, "b@x.com", "secret123")
	require.Equal(t, CodeUserNotFound, CodeOf(err))

	_, err = p.Authenticate(ctx, "a@x.com", "wrong-pass")
	require.Equal(t, CodeWrongPassword, CodeOf(err))

	require.True(t, p.MarkEmailVerified("a@x.com"))
	s, err := p.Authenticate(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, created.SubjectID, s.SubjectID)
	require.True(t, s.EmailVerified)
}

func TestMemoryProvider_Lockout(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()
	_, err := p.CreateCredential(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = p.Authenticate(ctx, "a@x.com", "nope-nope")
		require.Equal(t, CodeWrongPassword, CodeOf(err))
	}
	_, err = p.Authenticate(ctx, "a@x.com", "secret123")
	require.Equal(t, CodeTooManyRequests, CodeOf(err))
}

func TestMemoryProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()
	_, err := p.CreateCredential(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	require.True(t, p.Disable("a@x.com"))

	_, err = p.Authenticate(ctx, "a@x.com", "secret123")
	require.Equal(t, CodeUserDisabled, CodeOf(err))
}

func TestMemoryProvider_SignOutAndVerifyToken(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()
	s, err := p.CreateCredential(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	token := s.IDToken

	live, err := p.VerifyToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, s.SubjectID, live.SubjectID)

	require.NoError(t, p.SignOut(ctx, s))
	require.False(t, s.Active())
	require.Empty(t, s.IDToken)
	require.Equal(t, 0, p.LiveSessions(s.SubjectID))

	_, err = p.VerifyToken(ctx, token)
	require.Equal(t, CodeSessionEnded, CodeOf(err))

	_, err = p.VerifyToken(ctx, "garbage")
	require.Equal(t, CodeInvalidToken, CodeOf(err))

	require.NoError(t, p.SignOut(ctx, s))
}

func TestMemoryProvider_VerificationAndDelete(t *testing.T) {
	ctx := context.Background()
	p := newTestMemoryProvider()
	s, err := p.CreateCredential(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, p.SendVerificationEmail(ctx, s))
	require.Equal(t, 1, p.VerificationEmailsSent(s.SubjectID))

	require.NoError(t, p.DeleteCredential(ctx, s))
	require.False(t, p.HasCredential("a@x.com"))
	require.False(t, s.Active())

	err = p.SendVerificationEmail(ctx, s)
	require.Equal(t, CodeSessionEnded, CodeOf(err))

	_, err = p.Authenticate(ctx, "a@x.com", "secret123")
	require.Equal(t, CodeUserNotFound, CodeOf(err))
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeUnknown, CodeOf(context.Canceled))
	require.Equal(t, CodeWeakPassword, CodeOf(&Error{Code: CodeWeakPassword}))
}
