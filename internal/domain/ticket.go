package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// ValidStatus reports whether the value is a known status. Transitions
// between known statuses are not restricted; only Resolved and Closed
// carry timestamp side effects.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// ValidPriority reports whether the value is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ServiceType classifies which hotel desk handles the ticket.
type ServiceType string

const (
	ServiceTypeCleaning    ServiceType = "CLEANING"
	ServiceTypeRoomService ServiceType = "ROOM_SERVICE"
	ServiceTypeMaintenance ServiceType = "MAINTENANCE"
	ServiceTypeGeneral     ServiceType = "GENERAL"
)

// ValidServiceType reports whether the value is a known service type.
func ValidServiceType(s ServiceType) bool {
	switch s {
	case ServiceTypeCleaning, ServiceTypeRoomService, ServiceTypeMaintenance, ServiceTypeGeneral:
		return true
	}
	return false
}

// TicketCategory follows the ITIL request taxonomy.
type TicketCategory string

const (
	CategoryIncident       TicketCategory = "INCIDENT"
	CategoryServiceRequest TicketCategory = "SERVICE_REQUEST"
	CategoryProblem        TicketCategory = "PROBLEM"
	CategoryChange         TicketCategory = "CHANGE"
)

// ValidCategory reports whether the value is a known category.
func ValidCategory(c TicketCategory) bool {
	switch c {
	case CategoryIncident, CategoryServiceRequest, CategoryProblem, CategoryChange:
		return true
	}
	return false
}

// RiskLevel is derived from priority and service type, never set directly.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ImpactLevel is derived from priority and service type, never set directly.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "LOW"
	ImpactMedium   ImpactLevel = "MEDIUM"
	ImpactHigh     ImpactLevel = "HIGH"
	ImpactCritical ImpactLevel = "CRITICAL"
)

// Ticket is the aggregate for guest service requests.
type Ticket struct {
	ID           string
	TicketNumber string
	RequesterID  string
	AssigneeID   *string
	BookingID    *string
	RoomID       *string
	HotelID      *string
	Title        string
	Description  string
	ServiceType  ServiceType
	Category     TicketCategory
	SubCategory  *string
	Status       TicketStatus
	Priority     TicketPriority
	RiskLevel    RiskLevel
	Impact       ImpactLevel
	DueDate      time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
	Resolution   *string
	WorkNotes    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// slaTargets maps priority to the resolution window.
var slaTargets = map[TicketPriority]time.Duration{
	TicketPriorityCritical: 2 * time.Hour,
	TicketPriorityHigh:     8 * time.Hour,
	TicketPriorityMedium:   24 * time.Hour,
	TicketPriorityLow:      72 * time.Hour,
}

// SLADueDate computes the due date for a ticket created (or reprioritized)
// at the given instant.
func SLADueDate(priority TicketPriority, from time.Time) time.Time {
	target, ok := slaTargets[priority]
	if !ok {
		target = 24 * time.Hour
	}
	return from.Add(target)
}

// DeriveRisk computes the risk level from priority and service type.
func DeriveRisk(priority TicketPriority, serviceType ServiceType) RiskLevel {
	switch {
	case priority == TicketPriorityCritical || serviceType == ServiceTypeMaintenance:
		return RiskHigh
	case priority == TicketPriorityHigh:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DeriveImpact computes the impact level from priority and service type.
func DeriveImpact(priority TicketPriority, serviceType ServiceType) ImpactLevel {
	switch {
	case priority == TicketPriorityCritical:
		return ImpactCritical
	case priority == TicketPriorityHigh || serviceType == ServiceTypeMaintenance:
		return ImpactHigh
	case priority == TicketPriorityMedium:
		return ImpactMedium
	default:
		return ImpactLow
	}
}
