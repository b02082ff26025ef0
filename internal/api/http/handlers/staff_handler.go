package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workforce-service/internal/api/dto"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/service"
	"github.com/spec-kit/workforce-service/internal/workforce"
	"github.com/spec-kit/workforce-service/pkg/validation"
)

// StaffHandler exposes staff administration and status endpoints.
type StaffHandler struct {
	staffService  *service.StaffService
	statusService *service.StatusService
	validator     *validation.Validator
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService, statusService *service.StatusService, v *validation.Validator) *StaffHandler {
	return &StaffHandler{staffService: staffService, statusService: statusService, validator: v}
}

// Hire handles POST /staff.
func (h *StaffHandler) Hire(c *fiber.Ctx) error {
	var req dto.HireStaffRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	staff, err := h.staffService.Hire(c.UserContext(), service.HireInput{
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		Password:     req.Password,
		Role:         domain.StaffRole(req.Role),
		Territories:  req.Territories,
		Licenses:     licensesFromRequest(req.Licenses),
		MaxLeads:     req.MaxLeads,
		MaxCustomers: req.MaxCustomers,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(staff, nil)})
}

// List handles GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	staff, err := h.staffService.List(c.UserContext(), parseStaffListFilters(c))
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(staff))
	for i := range staff {
		resp = append(resp, staffResponse(&staff[i], nil))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /staff/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	view, err := h.staffService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(view.Staff, &view.Capacity)})
}

// UpdateWorkload handles PUT /staff/:id/workload.
func (h *StaffHandler) UpdateWorkload(c *fiber.Ctx) error {
	var req dto.WorkloadUpdateRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	view, err := h.staffService.UpdateWorkload(c.UserContext(), c.Params("id"), service.WorkloadUpdate{
		ActiveLeads:      req.ActiveLeads,
		ActiveCustomers:  req.ActiveCustomers,
		ActivePolicies:   req.ActivePolicies,
		PendingApprovals: req.PendingApprovals,
		MaxLeads:         req.MaxLeads,
		MaxCustomers:     req.MaxCustomers,
		ResetPeriod:      req.ResetPeriod,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(view.Staff, &view.Capacity)})
}

// UpdateLicenses handles PUT /staff/:id/licenses.
func (h *StaffHandler) UpdateLicenses(c *fiber.Ctx) error {
	var req dto.UpdateLicensesRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	staff, err := h.staffService.UpdateLicenses(c.UserContext(), c.Params("id"), licensesFromRequest(req.Licenses))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff, nil)})
}

// ChangeStatus handles POST /staff/:id/status.
func (h *StaffHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	staffID := c.Params("id")
	result, err := h.statusService.ChangeStatus(c.UserContext(), staffID, workforce.TransitionRequest{
		Target:    domain.StaffStatus(req.Status),
		Reason:    req.Reason,
		AwayUntil: req.AwayUntil,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusChangeResponse{
		StaffID:                      staffID,
		PreviousStatus:               result.PreviousStatus,
		CurrentStatus:                result.CurrentStatus,
		StatusChangedAt:              result.StatusChangedAt,
		Availability:                 result.Availability,
		Reason:                       result.Reason,
		RequiresWorkloadReassignment: workforce.RequiresWorkloadReassignment(result.PreviousStatus, result.CurrentStatus),
	}})
}

func parseStaffListFilters(c *fiber.Ctx) service.StaffListFilters {
	var filters service.StaffListFilters
	if status := c.Query("status"); status != "" {
		s := domain.StaffStatus(status)
		filters.Status = &s
	}
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filters.Role = &role
	}
	filters.Territory = optionalQuery(c, "territory")
	filters.TeamID = optionalQuery(c, "team_id")
	filters.Limit = parseIntQuery(c, "limit", 50)
	filters.Offset = parseIntQuery(c, "offset", 0)
	return filters
}

func licensesFromRequest(reqs []dto.LicenseRequest) []domain.License {
	out := make([]domain.License, 0, len(reqs))
	for _, r := range reqs {
		l := domain.License{
			Type:             r.Type,
			Number:           r.Number,
			IssuingAuthority: r.IssuingAuthority,
			IssueDate:        r.IssueDate,
			ExpiryDate:       r.ExpiryDate,
		}
		if r.Revoked {
			l.Status = domain.LicenseStatusRevoked
		}
		out = append(out, l)
	}
	return out
}

func staffResponse(staff *domain.StaffRecord, capacity *workforce.CapacitySnapshot) dto.StaffResponse {
	return dto.StaffResponse{
		ID:              staff.ID,
		DisplayName:     staff.DisplayName,
		Email:           staff.Email,
		Role:            staff.Role,
		Status:          staff.Status,
		Availability:    staff.Availability,
		StatusChangedAt: staff.StatusChangedAt,
		Territories:     nonNil(staff.Territories),
		TeamIDs:         nonNil(staff.TeamIDs),
		Workload:        staff.Workload,
		Performance:     staff.Performance,
		Licenses:        append([]domain.License{}, staff.Licenses...),
		Capacity:        capacity,
		CreatedAt:       staff.CreatedAt,
		UpdatedAt:       staff.UpdatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
