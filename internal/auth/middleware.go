package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/identity"
	"github.com/spec-kit/shift-scheduler/internal/repository"
	"github.com/spec-kit/shift-scheduler/internal/service"
	apperrors "github.com/spec-kit/shift-scheduler/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Session *identity.Session
	Profile *domain.Profile
}

// AuthMiddleware validates bearer ID tokens and loads profiles.
type AuthMiddleware struct {
	provider identity.Provider
	profiles repository.ProfileRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(provider identity.Provider, profiles repository.ProfileRepository) *AuthMiddleware {
	return &AuthMiddleware{provider: provider, profiles: profiles}
}

// Handle enforces authentication for protected routes. The caller must pass
// the same admission gates as sign-in.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	session, err := m.provider.VerifyToken(c.UserContext(), strings.TrimSpace(parts[1]))
	if err != nil {
		var idErr *identity.Error
		if errors.As(err, &idErr) && idErr.Code != identity.CodeUnknown {
			return apperrors.NewUnauthorized("invalid token")
		}
		return apperrors.NewBadGateway("identity provider unavailable", err)
	}

	profile, err := m.profiles.GetByID(c.UserContext(), session.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return apperrors.NewUnauthorized("profile not found")
		}
		return apperrors.MapError(err)
	}
	if adm := service.Admit(session, profile); !adm.Admitted {
		return apperrors.NewDomainError("FORBIDDEN", "account is not active", http.StatusForbidden, map[string]any{
			"reason":        string(adm.Reason),
			"needsApproval": adm.NeedsApproval,
		})
	}

	c.Locals(principalKey, &Principal{Session: session, Profile: profile})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
