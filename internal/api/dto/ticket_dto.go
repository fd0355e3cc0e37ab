package dto

import (
	"time"

	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/repository"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	ServiceType domain.ServiceType    `json:"service_type"`
	Category    domain.TicketCategory `json:"category"`
	SubCategory *string               `json:"sub_category"`
	Priority    domain.TicketPriority `json:"priority"`
	BookingID   *string               `json:"booking_id"`
	RoomID      *string               `json:"room_id"`
	HotelID     *string               `json:"hotel_id"`
}

// UpdateTicketRequest payload; absent fields stay untouched.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *domain.TicketStatus   `json:"status"`
	Priority    *domain.TicketPriority `json:"priority"`
	AssigneeID  *string                `json:"assignee_id"`
	Resolution  *string                `json:"resolution"`
	WorkNotes   *string                `json:"work_notes"`
	DueDate     *time.Time             `json:"due_date"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	Resolution string `json:"resolution"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	RequesterID  string                `json:"requester_id"`
	AssigneeID   *string               `json:"assignee_id"`
	BookingID    *string               `json:"booking_id"`
	RoomID       *string               `json:"room_id"`
	HotelID      *string               `json:"hotel_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	ServiceType  domain.ServiceType    `json:"service_type"`
	Category     domain.TicketCategory `json:"category"`
	SubCategory  *string               `json:"sub_category"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	RiskLevel    domain.RiskLevel      `json:"risk_level"`
	Impact       domain.ImpactLevel    `json:"impact"`
	DueDate      time.Time             `json:"due_date"`
	ResolvedAt   *time.Time            `json:"resolved_at"`
	ClosedAt     *time.Time            `json:"closed_at"`
	Resolution   *string               `json:"resolution"`
	WorkNotes    *string               `json:"work_notes"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketFromDomain maps a ticket to its response shape.
func TicketFromDomain(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		RequesterID:  t.RequesterID,
		AssigneeID:   t.AssigneeID,
		BookingID:    t.BookingID,
		RoomID:       t.RoomID,
		HotelID:      t.HotelID,
		Title:        t.Title,
		Description:  t.Description,
		ServiceType:  t.ServiceType,
		Category:     t.Category,
		SubCategory:  t.SubCategory,
		Status:       t.Status,
		Priority:     t.Priority,
		RiskLevel:    t.RiskLevel,
		Impact:       t.Impact,
		DueDate:      t.DueDate,
		ResolvedAt:   t.ResolvedAt,
		ClosedAt:     t.ClosedAt,
		Resolution:   t.Resolution,
		WorkNotes:    t.WorkNotes,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// TicketPage wraps a ticket listing with pagination info.
type TicketPage struct {
	Items    []TicketResponse `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentFromDomain maps a comment to its response shape.
func CommentFromDomain(c *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Body:       c.Body,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
	}
}

// HistoryEntryResponse is one audit trail row.
type HistoryEntryResponse struct {
	ID        string    `json:"id"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ActorID   string    `json:"actor_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryFromDomain maps an audit row to its response shape.
func HistoryFromDomain(h *domain.TicketHistory) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:        h.ID,
		Field:     h.Field,
		OldValue:  h.OldValue,
		NewValue:  h.NewValue,
		ActorID:   h.ActorID,
		Reason:    h.Reason,
		CreatedAt: h.CreatedAt,
	}
}

// StatisticsResponse summarizes ticket volume and resolution speed.
type StatisticsResponse struct {
	Total             int64            `json:"total"`
	ByStatus          map[string]int64 `json:"by_status"`
	ByPriority        map[string]int64 `json:"by_priority"`
	ByServiceType     map[string]int64 `json:"by_service_type"`
	ByCategory        map[string]int64 `json:"by_category"`
	ResolvedCount     int64            `json:"resolved_count"`
	AvgResolutionDays float64          `json:"avg_resolution_days"`
}

// StatisticsFromRepo maps aggregate rows to the response shape.
func StatisticsFromRepo(s *repository.TicketStatistics) StatisticsResponse {
	return StatisticsResponse{
		Total:             s.Total,
		ByStatus:          stringKeys(s.ByStatus),
		ByPriority:        stringKeys(s.ByPriority),
		ByServiceType:     stringKeys(s.ByServiceType),
		ByCategory:        stringKeys(s.ByCategory),
		ResolvedCount:     s.ResolvedCount,
		AvgResolutionDays: s.AvgResolutionDays,
	}
}

func stringKeys[K ~string](in map[K]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}
