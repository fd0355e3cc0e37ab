package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/events"
	"github.com/stayhub/service-desk/internal/repository"
	apperrors "github.com/stayhub/service-desk/pkg/util"
)

// NumberAllocator yields the next ticket number.
type NumberAllocator interface {
	Next(ctx context.Context) (string, error)
}

// TicketService coordinates the ticket lifecycle: creation, updates,
// assignment, closure, comments and statistics.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	history    repository.TicketHistoryRepository
	bookings   repository.BookingRepository
	users      repository.UserRepository
	numbers    NumberAllocator
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	HistoryRepo repository.TicketHistoryRepository
	BookingRepo repository.BookingRepository
	UserRepo    repository.UserRepository
	Numbers     NumberAllocator
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		bookings:   deps.BookingRepo,
		users:      deps.UserRepo,
		numbers:    deps.Numbers,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	ServiceType domain.ServiceType
	Category    domain.TicketCategory
	SubCategory *string
	Priority    domain.TicketPriority
	BookingID   *string
	RoomID      *string
	HotelID     *string
}

// TicketUpdateInput carries optional field updates; nil means untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	AssigneeID  *string
	Resolution  *string
	WorkNotes   *string
	DueDate     *time.Time
}

// TicketListInput describes listing filters on top of role scoping.
type TicketListInput struct {
	Search      *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	ServiceType *domain.ServiceType
	Category    *domain.TicketCategory
	RequesterID *string
	AssigneeID  *string
	BookingID   *string
	RoomID      *string
	HotelID     *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	DueFrom     *time.Time
	DueTo       *time.Time
	SortBy      string
	SortDesc    bool
	Page        int
	PageSize    int
}

const createTicketMaxAttempts = 3

// CreateTicket registers a new ticket for the caller as requester.
func (s *TicketService) CreateTicket(ctx context.Context, caller Caller, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if !domain.ValidServiceType(input.ServiceType) {
		return nil, apperrors.NewValidationError("unknown service type", map[string]any{"service_type": input.ServiceType})
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	roomID, hotelID := input.RoomID, input.HotelID
	if input.BookingID != nil {
		booking, err := s.bookings.GetByID(ctx, *input.BookingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("booking", map[string]any{"booking_id": *input.BookingID})
			}
			return nil, apperrors.MapError(err)
		}
		if booking.UserID != caller.ID {
			return nil, apperrors.NewForbidden("booking belongs to another guest")
		}
		if roomID == nil {
			roomID = &booking.RoomID
		}
		if hotelID == nil {
			hotelID = &booking.HotelID
		}
	}

	createdAt := s.now()
	ticket := &domain.Ticket{
		RequesterID: caller.ID,
		BookingID:   input.BookingID,
		RoomID:      roomID,
		HotelID:     hotelID,
		Title:       title,
		Description: description,
		ServiceType: input.ServiceType,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		RiskLevel:   domain.DeriveRisk(priority, input.ServiceType),
		Impact:      domain.DeriveImpact(priority, input.ServiceType),
		DueDate:     domain.SLADueDate(priority, createdAt),
	}

	opened := domain.TicketHistory{
		Field:    domain.FieldStatus,
		OldValue: "",
		NewValue: string(domain.TicketStatusOpen),
		ActorID:  caller.ID,
		Reason:   "ticket created",
	}

	// Ticket numbers are allocated by an atomic per-year counter; the
	// unique index plus retry covers a counter reset racing a late insert.
	var lastErr error
	for attempt := 0; attempt < createTicketMaxAttempts; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.TicketNumber = number
		if err := s.tickets.CreateWithHistory(ctx, ticket, []domain.TicketHistory{opened}); err != nil {
			if repository.IsUniqueViolation(err) {
				lastErr = err
				continue
			}
			return nil, apperrors.MapError(err)
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, apperrors.NewConflict("ticket number allocation conflict", nil)
	}

	s.publish(ctx, caller, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Title:        ticket.Title,
			ServiceType:  ticket.ServiceType,
			Priority:     ticket.Priority,
		},
	})
	return ticket, nil
}

// ListTickets returns the page of tickets visible to the caller.
func (s *TicketService) ListTickets(ctx context.Context, caller Caller, input TicketListInput) ([]domain.Ticket, int64, error) {
	filter := repository.TicketFilter{
		Scope:       listScope(caller),
		Search:      input.Search,
		Status:      input.Status,
		Priority:    input.Priority,
		ServiceType: input.ServiceType,
		Category:    input.Category,
		RequesterID: input.RequesterID,
		AssigneeID:  input.AssigneeID,
		BookingID:   input.BookingID,
		RoomID:      input.RoomID,
		HotelID:     input.HotelID,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		DueFrom:     input.DueFrom,
		DueTo:       input.DueTo,
		SortBy:      input.SortBy,
		SortDesc:    input.SortDesc,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}
	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// GetTicket fetches a single ticket. Tickets outside the caller's
// visibility read as not found; existence is not revealed.
func (s *TicketService) GetTicket(ctx context.Context, caller Caller, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !Allowed(caller, ticket, ActionView) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// CanViewTicket implements the relay's join-time visibility check.
func (s *TicketService) CanViewTicket(ctx context.Context, userID string, role domain.Role, ticketID string) error {
	_, err := s.GetTicket(ctx, Caller{ID: userID, Role: role}, ticketID)
	return err
}

// UpdateTicket applies the supplied field changes, writing one history
// row per changed field. Unchanged or absent fields leave no trace.
func (s *TicketService) UpdateTicket(ctx context.Context, caller Caller, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !Allowed(caller, ticket, ActionView) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if !Allowed(caller, ticket, ActionUpdate) {
		return nil, apperrors.NewForbidden("not permitted to update this ticket")
	}

	var entries []domain.TicketHistory
	record := func(field, oldValue, newValue, reason string) {
		entries = append(entries, domain.TicketHistory{
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
			ActorID:  caller.ID,
			Reason:   reason,
		})
	}

	now := s.now()

	if input.Title != nil && *input.Title != ticket.Title {
		record(domain.FieldTitle, ticket.Title, *input.Title, "title updated")
		ticket.Title = *input.Title
	}
	if input.Description != nil && *input.Description != ticket.Description {
		record(domain.FieldDescription, ticket.Description, *input.Description, "description updated")
		ticket.Description = *input.Description
	}
	if input.Status != nil && *input.Status != ticket.Status {
		if !domain.ValidStatus(*input.Status) {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
		}
		record(domain.FieldStatus, string(ticket.Status), string(*input.Status), "status updated")
		ticket.Status = *input.Status
		switch ticket.Status {
		case domain.TicketStatusResolved:
			ticket.ResolvedAt = &now
		case domain.TicketStatusClosed:
			ticket.ClosedAt = &now
		}
	}
	if input.Priority != nil && *input.Priority != ticket.Priority {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		record(domain.FieldPriority, string(ticket.Priority), string(*input.Priority), "priority updated")
		ticket.Priority = *input.Priority
		// Reprioritizing restates the SLA from creation time and refreshes
		// the derived fields.
		newDue := domain.SLADueDate(ticket.Priority, ticket.CreatedAt)
		if !newDue.Equal(ticket.DueDate) {
			record(domain.FieldDueDate, ticket.DueDate.Format(time.RFC3339), newDue.Format(time.RFC3339), "sla recomputed")
			ticket.DueDate = newDue
		}
		ticket.RiskLevel = domain.DeriveRisk(ticket.Priority, ticket.ServiceType)
		ticket.Impact = domain.DeriveImpact(ticket.Priority, ticket.ServiceType)
	}
	if input.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *input.AssigneeID) {
		if _, err := s.users.GetByID(ctx, *input.AssigneeID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("assignee does not exist", map[string]any{"assignee_id": *input.AssigneeID})
			}
			return nil, apperrors.MapError(err)
		}
		record(domain.FieldAssignee, strValue(ticket.AssigneeID), *input.AssigneeID, "assignee updated")
		ticket.AssigneeID = input.AssigneeID
	}
	if input.Resolution != nil && *input.Resolution != strValue(ticket.Resolution) {
		record(domain.FieldResolution, strValue(ticket.Resolution), *input.Resolution, "resolution updated")
		ticket.Resolution = input.Resolution
	}
	if input.WorkNotes != nil && *input.WorkNotes != strValue(ticket.WorkNotes) {
		record(domain.FieldWorkNotes, strValue(ticket.WorkNotes), *input.WorkNotes, "work notes updated")
		ticket.WorkNotes = input.WorkNotes
	}
	if input.DueDate != nil && !input.DueDate.Equal(ticket.DueDate) {
		record(domain.FieldDueDate, ticket.DueDate.Format(time.RFC3339), input.DueDate.Format(time.RFC3339), "due date updated")
		ticket.DueDate = *input.DueDate
	}

	if len(entries) == 0 {
		return ticket, nil
	}
	if err := s.tickets.UpdateWithHistory(ctx, ticket, entries); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, caller, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Payload: events.TicketUpdatedPayload{
			Status:   ticket.Status,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// AssignTicket hands a ticket to a staff member and moves it in progress.
// Only Admin and Reception may assign.
func (s *TicketService) AssignTicket(ctx context.Context, caller Caller, ticketID, assigneeID string) (*domain.Ticket, error) {
	if caller.Role != domain.RoleAdmin && caller.Role != domain.RoleReception {
		return nil, apperrors.NewForbidden("only admin or reception may assign tickets")
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("assignee does not exist", map[string]any{"assignee_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	entries := []domain.TicketHistory{
		{
			Field:    domain.FieldAssignee,
			OldValue: strValue(ticket.AssigneeID),
			NewValue: assignee.ID,
			ActorID:  caller.ID,
			Reason:   "ticket assigned",
		},
		{
			Field:    domain.FieldStatus,
			OldValue: string(ticket.Status),
			NewValue: string(domain.TicketStatusInProgress),
			ActorID:  caller.ID,
			Reason:   "ticket assigned",
		},
	}
	ticket.AssigneeID = &assignee.ID
	ticket.Status = domain.TicketStatusInProgress

	if err := s.tickets.UpdateWithHistory(ctx, ticket, entries); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, caller, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Payload: events.TicketAssignedPayload{
			AssigneeID:   assignee.ID,
			AssigneeName: assignee.Name,
		},
	})
	return ticket, nil
}

// CloseTicket closes a ticket with a resolution. The requester, the
// current assignee, and admins may close.
func (s *TicketService) CloseTicket(ctx context.Context, caller Caller, ticketID, resolution string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !Allowed(caller, ticket, ActionView) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if !Allowed(caller, ticket, ActionClose) {
		return nil, apperrors.NewForbidden("not permitted to close this ticket")
	}

	now := s.now()
	entries := []domain.TicketHistory{
		{
			Field:    domain.FieldStatus,
			OldValue: string(ticket.Status),
			NewValue: string(domain.TicketStatusClosed),
			ActorID:  caller.ID,
			Reason:   "ticket closed",
		},
		{
			Field:    domain.FieldResolution,
			OldValue: strValue(ticket.Resolution),
			NewValue: resolution,
			ActorID:  caller.ID,
			Reason:   "ticket closed",
		},
	}
	ticket.Status = domain.TicketStatusClosed
	ticket.Resolution = &resolution
	ticket.ClosedAt = &now

	if err := s.tickets.UpdateWithHistory(ctx, ticket, entries); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, caller, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		Payload:  events.TicketClosedPayload{Resolution: resolution},
	})
	return ticket, nil
}

// AddComment appends an immutable comment to the ticket thread.
func (s *TicketService) AddComment(ctx context.Context, caller Caller, ticketID, body string, isInternal bool) (*domain.TicketComment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !Allowed(caller, ticket, ActionView) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if !Allowed(caller, ticket, ActionComment) {
		return nil, apperrors.NewForbidden("not permitted to comment on this ticket")
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorID:   caller.ID,
		AuthorName: caller.Name,
		Body:       strings.TrimSpace(body),
		IsInternal: isInternal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, caller, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Payload: events.CommentAddedPayload{
			CommentID:  comment.ID,
			Body:       comment.Body,
			AuthorID:   caller.ID,
			AuthorName: caller.Name,
			IsInternal: isInternal,
		},
	})
	return comment, nil
}

// GetComments lists the ticket thread; internal comments are hidden from
// requesters with RoleUser.
func (s *TicketService) GetComments(ctx context.Context, caller Caller, ticketID string) ([]domain.TicketComment, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !Allowed(caller, ticket, ActionView) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if caller.Role != domain.RoleUser {
		return comments, nil
	}
	visible := make([]domain.TicketComment, 0, len(comments))
	for _, comment := range comments {
		if comment.IsInternal {
			continue
		}
		visible = append(visible, comment)
	}
	return visible, nil
}

// GetHistory lists the audit trail. Guests see workflow entries only.
func (s *TicketService) GetHistory(ctx context.Context, caller Caller, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !Allowed(caller, ticket, ActionView) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if caller.Role != domain.RoleUser {
		return entries, nil
	}
	visible := make([]domain.TicketHistory, 0, len(entries))
	for _, entry := range entries {
		if entry.Field == domain.FieldStatus || entry.Field == domain.FieldAssignee {
			visible = append(visible, entry)
		}
	}
	return visible, nil
}

// DeleteTicket removes a ticket with its comments, attachments and
// history. Admin only.
func (s *TicketService) DeleteTicket(ctx context.Context, caller Caller, ticketID string) error {
	if caller.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only admin may delete tickets")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// GetStatistics aggregates ticket counts and mean resolution time.
func (s *TicketService) GetStatistics(ctx context.Context, from, to *time.Time) (*repository.TicketStatistics, error) {
	stats, err := s.tickets.Stats(ctx, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

func (s *TicketService) fetch(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, caller Caller, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	event.Actor = events.Actor{ID: caller.ID, Name: caller.Name, Role: caller.Role}
	_ = s.dispatcher.Publish(ctx, event)
}

func strValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
