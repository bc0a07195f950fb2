package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleDispatcher Role = "DISPATCHER"
	RoleViewer     Role = "VIEWER"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID   uuid.UUID
	AgencyID uuid.UUID
	Role     Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsDispatcher() bool {
	return p.Role == RoleDispatcher
}

// CanManageFleet reports whether the caller may register resources and
// create or release assignments.
func (p Principal) CanManageFleet() bool {
	return p.IsAdmin() || p.IsDispatcher()
}
