package service

import (
	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/repository"
)

// Caller identifies the authenticated principal invoking an operation.
type Caller struct {
	ID   string
	Name string
	Role domain.Role
}

// Action names a capability requested against a ticket.
type Action string

const (
	ActionView    Action = "view"
	ActionUpdate  Action = "update"
	ActionAssign  Action = "assign"
	ActionClose   Action = "close"
	ActionComment Action = "comment"
	ActionDelete  Action = "delete"
)

// deskServiceType maps a staff role to the service type its desk owns.
func deskServiceType(role domain.Role) (domain.ServiceType, bool) {
	switch role {
	case domain.RoleCleaningStaff:
		return domain.ServiceTypeCleaning, true
	case domain.RoleReception:
		return domain.ServiceTypeRoomService, true
	}
	return "", false
}

// Allowed is the single capability check consumed by every lifecycle
// operation and by the relay's join validation.
func Allowed(caller Caller, ticket *domain.Ticket, action Action) bool {
	if caller.Role == domain.RoleAdmin {
		return true
	}

	assigned := ticket.AssigneeID != nil && *ticket.AssigneeID == caller.ID
	desk, isDesk := deskServiceType(caller.Role)

	switch action {
	case ActionView:
		if caller.Role == domain.RoleUser {
			return ticket.RequesterID == caller.ID
		}
		if isDesk {
			return assigned || ticket.ServiceType == desk || ticket.Status == domain.TicketStatusOpen
		}
	case ActionUpdate, ActionComment:
		if caller.Role == domain.RoleUser {
			return ticket.RequesterID == caller.ID
		}
		if isDesk {
			return assigned || ticket.ServiceType == desk
		}
	case ActionAssign:
		return caller.Role == domain.RoleReception
	case ActionClose:
		return ticket.RequesterID == caller.ID || assigned
	case ActionDelete:
		return false
	}
	return false
}

// listScope translates the caller's role into the repository visibility
// scope applied before any other listing filter.
func listScope(caller Caller) *repository.VisibilityScope {
	switch caller.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleUser:
		id := caller.ID
		return &repository.VisibilityScope{RequesterID: &id}
	default:
		id := caller.ID
		scope := &repository.VisibilityScope{AssigneeID: &id, IncludeOpen: true}
		if desk, ok := deskServiceType(caller.Role); ok {
			scope.ServiceType = &desk
		}
		return scope
	}
}
