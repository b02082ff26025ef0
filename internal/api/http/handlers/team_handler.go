package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workforce-service/internal/api/dto"
	"github.com/spec-kit/workforce-service/internal/domain"
	"github.com/spec-kit/workforce-service/internal/service"
	"github.com/spec-kit/workforce-service/pkg/validation"
)

// TeamHandler exposes team endpoints.
type TeamHandler struct {
	teams     *service.TeamService
	validator *validation.Validator
}

// NewTeamHandler constructs handler.
func NewTeamHandler(teams *service.TeamService, v *validation.Validator) *TeamHandler {
	return &TeamHandler{teams: teams, validator: v}
}

// Create handles POST /teams.
func (h *TeamHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTeamRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	team, err := h.teams.CreateTeam(c.UserContext(), service.CreateTeamInput{
		Name:            req.Name,
		Type:            domain.TeamType(req.Type),
		LeaderID:        req.LeaderID,
		MemberIDs:       req.MemberIDs,
		Territories:     req.Territories,
		Specializations: req.Specializations,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": teamResponse(team)})
}

// List handles GET /teams.
func (h *TeamHandler) List(c *fiber.Ctx) error {
	teams, err := h.teams.ListTeams(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		resp = append(resp, teamResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /teams/:id.
func (h *TeamHandler) Get(c *fiber.Ctx) error {
	team, err := h.teams.GetTeam(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// AddMember handles POST /teams/:id/members.
func (h *TeamHandler) AddMember(c *fiber.Ctx) error {
	var req dto.TeamMemberRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	team, err := h.teams.AddMember(c.UserContext(), c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// RemoveMember handles DELETE /teams/:id/members/:staffId.
func (h *TeamHandler) RemoveMember(c *fiber.Ctx) error {
	team, err := h.teams.RemoveMember(c.UserContext(), c.Params("id"), c.Params("staffId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

func teamResponse(team *domain.TeamRecord) dto.TeamResponse {
	return dto.TeamResponse{
		ID:              team.ID,
		Name:            team.Name,
		Type:            string(team.Type),
		LeaderID:        team.LeaderID,
		MemberIDs:       nonNil(team.MemberIDs),
		Territories:     nonNil(team.Territories),
		Specializations: nonNil(team.Specializations),
		CreatedAt:       team.CreatedAt,
		UpdatedAt:       team.UpdatedAt,
	}
}
