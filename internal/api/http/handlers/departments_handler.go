package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-scheduler/internal/api/dto"
	"github.com/spec-kit/shift-scheduler/internal/auth"
	"github.com/spec-kit/shift-scheduler/internal/domain"
	"github.com/spec-kit/shift-scheduler/internal/repository"
	"github.com/spec-kit/shift-scheduler/internal/service"
	apperrors "github.com/spec-kit/shift-scheduler/pkg/util"
)

// DepartmentsHandler exposes department management endpoints.
type DepartmentsHandler struct {
	departments *service.DepartmentService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(departments *service.DepartmentService) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departments}
}

// List handles GET /departments.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	depts, err := h.departments.List(c.UserContext())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentList(depts)})
}

// Mine handles GET /departments/mine.
func (h *DepartmentsHandler) Mine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	depts, err := h.departments.ListOwned(c.UserContext(), principal.Profile)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentList(depts)})
}

// Lookup handles GET /departments/lookup?name=.
func (h *DepartmentsHandler) Lookup(c *fiber.Ctx) error {
	dept, err := h.departments.FindByName(c.UserContext(), c.Query("name"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// Get handles GET /departments/:id.
func (h *DepartmentsHandler) Get(c *fiber.Ctx) error {
	dept, err := h.departments.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// Create handles POST /departments. An existing department with the same
// name is returned with 200 instead of 201.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	dept, created, err := h.departments.Create(c.UserContext(), principal.Profile, departmentInput(req))
	if err != nil {
		return mapServiceError(err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// Update handles PUT /departments/:id.
func (h *DepartmentsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	dept, err := h.departments.Update(c.UserContext(), principal.Profile, c.Params("id"), departmentInput(req))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// Delete handles DELETE /departments/:id.
func (h *DepartmentsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.departments.Delete(c.UserContext(), principal.Profile, c.Params("id")); err != nil {
		return mapServiceError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func departmentInput(req dto.DepartmentRequest) service.DepartmentInput {
	return service.DepartmentInput{
		Name:       req.Name,
		Type:       domain.DepartmentType(req.Type),
		Scheduling: req.SchedulingConfig,
		Settings:   req.Settings,
	}
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDepartmentNotFound):
		return apperrors.NewNotFound("department", nil)
	case errors.Is(err, repository.ErrProfileNotFound):
		return apperrors.NewNotFound("profile", nil)
	case errors.Is(err, service.ErrForbidden):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, service.ErrInvalidDepartment):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, service.ErrDepartmentNameTaken):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, repository.ErrNameLocked):
		return apperrors.NewConflict("department name is being created, retry", nil)
	default:
		return apperrors.MapError(err)
	}
}
