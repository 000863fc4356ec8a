package dto

import "github.com/amirphl/property-guru/models"

// UpdateAccountRequest edits a user or agent. Role is accepted only to be rejected when it differs.
type UpdateAccountRequest struct {
	Name    *string `json:"name" form:"name" validate:"omitempty,min=2,max=255"`
	Contact *string `json:"contact" form:"contact" validate:"omitempty,min=5,max=20"`
	Email   *string `json:"email" form:"email" validate:"omitempty,email,max=255"`
	Status  *string `json:"status" form:"status" validate:"omitempty,oneof=active inactive"`
	Role    *string `json:"role" form:"role" validate:"omitempty,max=20"`
}

// CreateAgentRequest is the multipart payload of POST /agents/:franchiseId/agents
type CreateAgentRequest struct {
	Name     string `json:"name" form:"name" validate:"required,min=2,max=255"`
	Contact  string `json:"contact" form:"contact" validate:"required,min=5,max=20"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=100"`
}

// CreateFranchiseRequest is the multipart payload of POST /franchise/create
type CreateFranchiseRequest struct {
	FullName        string  `json:"fullName" form:"fullName" validate:"required,min=2,max=255"`
	Email           string  `json:"email" form:"email" validate:"required,email,max=255"`
	Contact         string  `json:"contact" form:"contact" validate:"required,min=5,max=20"`
	City            string  `json:"city" form:"city" validate:"required,max=100"`
	Password        string  `json:"password" form:"password" validate:"required,min=6,max=100"`
	ConfirmPassword string  `json:"confirmPassword" form:"confirmPassword" validate:"required,max=100"`
	Status          *string `json:"status" form:"status" validate:"omitempty,oneof=pending approved rejected"`
}

type UpdateFranchiseRequest struct {
	FullName *string `json:"fullName" form:"fullName" validate:"omitempty,min=2,max=255"`
	Contact  *string `json:"contact" form:"contact" validate:"omitempty,min=5,max=20"`
	City     *string `json:"city" form:"city" validate:"omitempty,max=100"`
	Status   *string `json:"status" form:"status" validate:"omitempty,oneof=pending approved rejected"`
	Password *string `json:"password" form:"password" validate:"omitempty,min=6,max=100"`
}

// FranchiseCreatedResponse carries both rows written by franchise creation
type FranchiseCreatedResponse struct {
	User      *models.Account   `json:"user"`
	Franchise *models.Franchise `json:"franchise"`
}
