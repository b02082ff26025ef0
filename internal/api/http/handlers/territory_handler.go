package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workforce-service/internal/api/dto"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/service"
	"github.com/spec-kit/workforce-service/pkg/validation"
)

// TerritoryHandler exposes territory endpoints.
type TerritoryHandler struct {
	territories *service.TerritoryService
	validator   *validation.Validator
}

// NewTerritoryHandler constructs handler.
func NewTerritoryHandler(territories *service.TerritoryService, v *validation.Validator) *TerritoryHandler {
	return &TerritoryHandler{territories: territories, validator: v}
}

// Create handles POST /territories.
func (h *TerritoryHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTerritoryRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	territory, err := h.territories.CreateTerritory(c.UserContext(), req.ID, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": territoryResponse(territory)})
}

// List handles GET /territories.
func (h *TerritoryHandler) List(c *fiber.Ctx) error {
	territories, err := h.territories.ListTerritories(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.TerritoryResponse, 0, len(territories))
	for i := range territories {
		resp = append(resp, territoryResponse(&territories[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /territories/:id.
func (h *TerritoryHandler) Get(c *fiber.Ctx) error {
	territory, err := h.territories.GetTerritory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": territoryResponse(territory)})
}

// AssignStaff handles PUT /staff/:id/territories.
func (h *TerritoryHandler) AssignStaff(c *fiber.Ctx) error {
	var req dto.TerritoryAssignmentRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	staff, err := h.territories.AssignStaffTerritories(c.UserContext(), c.Params("id"), domain.TerritoryOperation(req.Operation), req.Territories)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff, nil)})
}

// Reconcile handles POST /territories/reconcile. It repairs the reverse index
// inline and reports the drift it found.
func (h *TerritoryHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.territories.Reconcile(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

func territoryResponse(t *domain.TerritoryRecord) dto.TerritoryResponse {
	return dto.TerritoryResponse{
		ID:               t.ID,
		Name:             t.Name,
		AssignedStaffIDs: nonNil(t.AssignedStaffIDs),
		AssignedTeamIDs:  nonNil(t.AssignedTeamIDs),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}
