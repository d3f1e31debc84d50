package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-scheduler/internal/api/dto"
	"github.com/spec-kit/shift-scheduler/internal/auth"
	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/service"
	apperrors "github.com/spec-kit/shift-scheduler/pkg/util"
)

// AccountsHandler exposes signup, sign-in and session endpoints.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

// SignUp handles POST /auth/signup.
func (h *AccountsHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	role, err := domain.ParseRole(strings.TrimSpace(req.Role))
	if err != nil || role == domain.RoleWorker {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
	}

	res := h.accounts.SignUp(c.UserContext(), service.SignUpInput{
		Email:                req.Email,
		Password:             req.Password,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Role:                 role,
		DepartmentSelector:   req.DepartmentID,
		CustomDepartmentName: req.CustomDepartmentName,
	})
	return c.Status(signUpStatus(res)).JSON(fiber.Map{"data": signUpResponse(res)})
}

// SignUpWorker handles POST /auth/signup/worker.
func (h *AccountsHandler) SignUpWorker(c *fiber.Ctx) error {
	var req dto.WorkerSignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	if req.QualificationLevel != nil && *req.QualificationLevel < 1 {
		return apperrors.NewValidationError("qualificationLevel must be at least 1", nil)
	}

	res := h.accounts.SignUpWorker(c.UserContext(), service.WorkerSignUpInput{
		Email:              req.Email,
		Password:           req.Password,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		DepartmentID:       req.DepartmentID,
		QualificationLevel: req.QualificationLevel,
	})
	return c.Status(signUpStatus(res)).JSON(fiber.Map{"data": signUpResponse(res)})
}

// SignIn handles POST /auth/signin.
func (h *AccountsHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	res := h.accounts.SignIn(c.UserContext(), req.Email, req.Password)
	return c.Status(signInStatus(res)).JSON(fiber.Map{"data": dto.SignInResponse{
		Success:       res.Success,
		Message:       res.Message,
		Reason:        string(res.Reason),
		NeedsApproval: res.NeedsApproval,
		Auth:          dto.NewAuthResponse(res.Session),
		Profile:       dto.NewProfileResponse(res.Profile),
	}})
}

// SignOut handles POST /auth/signout.
func (h *AccountsHandler) SignOut(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.accounts.SignOut(c.UserContext(), principal.Session); err != nil {
		return apperrors.NewBadGateway("sign out failed", err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
}

// Me handles GET /profiles/me.
func (h *AccountsHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	profile, err := h.accounts.GetProfile(c.UserContext(), principal.Profile.ID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(profile)})
}

// Pending handles GET /profiles/pending.
func (h *AccountsHandler) Pending(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	profiles, err := h.accounts.PendingApprovals(c.UserContext(), principal.Profile)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileList(profiles)})
}

// DepartmentMembers handles GET /departments/:id/members.
func (h *AccountsHandler) DepartmentMembers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	profiles, err := h.accounts.DepartmentMembers(c.UserContext(), principal.Profile, c.Params("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileList(profiles)})
}

func signUpResponse(res service.SignUpResult) dto.SignUpResponse {
	return dto.SignUpResponse{
		Success:   res.Success,
		Message:   res.Message,
		Reason:    string(res.Reason),
		ProfileID: res.ProfileID,
	}
}

func signUpStatus(res service.SignUpResult) int {
	if res.Success {
		return http.StatusCreated
	}
	switch res.Reason {
	case service.ReasonUnauthorizedDepartment:
		return http.StatusForbidden
	case service.ReasonSignUpFailed:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func signInStatus(res service.SignInResult) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Reason {
	case service.ReasonUserNotFound, service.ReasonWrongPassword, service.ReasonInvalidCredential, service.ReasonInvalidEmail:
		return http.StatusUnauthorized
	case service.ReasonTooManyAttempts:
		return http.StatusTooManyRequests
	case service.ReasonProfileNotFound:
		return http.StatusNotFound
	case service.ReasonUserDisabled, service.ReasonEmailNotVerified, service.ReasonPendingApproval,
		service.ReasonRejected, service.ReasonAccountDeleted:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}
