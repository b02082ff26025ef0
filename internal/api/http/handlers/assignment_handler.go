package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workforce-service/internal/api/dto"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/service"
	"github.com/spec-kit/workforce-service/pkg/validation"
)

// AssignmentHandler exposes the assignment recommendation endpoint.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	validator   *validation.Validator
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignments *service.AssignmentService, v *validation.Validator) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, validator: v}
}

// Recommend handles POST /assignments/recommend. An empty recommendation
// with no fallback is still a 200; callers decide how to queue the work.
func (h *AssignmentHandler) Recommend(c *fiber.Ctx) error {
	var req dto.AssignmentRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	criteria := domain.AssignmentCriteria{
		AssignmentType:  domain.AssignmentType(req.AssignmentType),
		Territory:       req.Territory,
		Specialization:  req.Specialization,
		CurrentOwnerID:  req.CurrentOwnerID,
		PreferredTeamID: req.PreferredTeamID,
		Urgency:         domain.Urgency(req.Urgency),
	}
	rec, err := h.assignments.Recommend(c.UserContext(), criteria, req.Limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rec})
}
