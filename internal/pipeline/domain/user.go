package domain

import "github.com/google/uuid"

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// User is a salesperson whose pipeline is evaluated.
type User struct {
	ID             uuid.UUID  `json:"id" validate:"required"`
	OrganizationID uuid.UUID  `json:"organizationId" validate:"required"`
	BranchID       *uuid.UUID `json:"branchId,omitempty"`
	Email          string     `json:"email"`
	FullName       string     `json:"fullName"`
	Status         UserStatus `json:"status" validate:"required,oneof=active inactive"`
}

// Organization is a tenant.
type Organization struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
