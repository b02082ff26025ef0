package dto

import "time"

// CreateTerritoryRequest payload for POST /territories. ID is generated when
// omitted.
type CreateTerritoryRequest struct {
	ID   string `json:"id" validate:"omitempty,max=64"`
	Name string `json:"name" validate:"required,max=200"`
}

// TerritoryAssignmentRequest payload for PUT /staff/:id/territories.
type TerritoryAssignmentRequest struct {
	Territories []string `json:"territories" validate:"dive,required"`
	Operation   string   `json:"operation" validate:"required,territoryop"`
}

// TerritoryResponse is the public shape of a territory.
type TerritoryResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	AssignedStaffIDs []string  `json:"assignedStaffIds"`
	AssignedTeamIDs  []string  `json:"assignedTeamIds"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CreateTeamRequest payload for POST /teams.
type CreateTeamRequest struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Type            string   `json:"type" validate:"required,teamtype"`
	LeaderID        string   `json:"leaderId" validate:"required"`
	MemberIDs       []string `json:"memberIds" validate:"omitempty,dive,required"`
	Territories     []string `json:"territories" validate:"omitempty,dive,required"`
	Specializations []string `json:"specializations" validate:"omitempty,dive,required"`
}

// TeamMemberRequest payload for POST /teams/:id/members.
type TeamMemberRequest struct {
	StaffID string `json:"staffId" validate:"required"`
}

// TeamResponse is the public shape of a team.
type TeamResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	LeaderID        string    `json:"leaderId"`
	MemberIDs       []string  `json:"memberIds"`
	Territories     []string  `json:"territories"`
	Specializations []string  `json:"specializations"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
