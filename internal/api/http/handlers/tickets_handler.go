package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/stayhub/service-desk/internal/api/dto"
	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/service"
	apperrors "github.com/stayhub/service-desk/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), caller, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		ServiceType: req.ServiceType,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Priority:    req.Priority,
		BookingID:   req.BookingID,
		RoomID:      req.RoomID,
		HotelID:     req.HotelID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	input := parseTicketListQuery(c)
	return h.respondPage(c, caller, input)
}

// Mine GET /tickets/mine.
func (h *TicketsHandler) Mine(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	input := parseTicketListQuery(c)
	input.RequesterID = &caller.ID
	return h.respondPage(c, caller, input)
}

// Assigned GET /tickets/assigned.
func (h *TicketsHandler) Assigned(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	input := parseTicketListQuery(c)
	input.AssigneeID = &caller.ID
	return h.respondPage(c, caller, input)
}

func (h *TicketsHandler) respondPage(c *fiber.Ctx, caller service.Caller, input service.TicketListInput) error {
	tickets, total, err := h.service.ListTickets(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketFromDomain(&tickets[i]))
	}
	page, pageSize := input.Page, input.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return c.JSON(fiber.Map{"data": dto.TicketPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), caller, c.Params("id"), service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		Resolution:  req.Resolution,
		WorkNotes:   req.WorkNotes,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}

	ticket, err := h.service.AssignTicket(c.UserContext(), caller, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CloseTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Resolution) == "" {
		return apperrors.NewValidationError("resolution required", nil)
	}

	ticket, err := h.service.CloseTicket(c.UserContext(), caller, c.Params("id"), req.Resolution)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.UserContext(), caller, c.Params("id"), req.Body, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CommentFromDomain(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	comments, err := h.service.GetComments(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.CommentFromDomain(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	entries, err := h.service.GetHistory(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.HistoryFromDomain(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats GET /tickets/stats. Admin only at the route level.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.GetStatistics(c.UserContext(),
		parseTime(c.Query("from")), parseTime(c.Query("to")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatisticsFromRepo(stats)})
}

func parseTicketListQuery(c *fiber.Ctx) service.TicketListInput {
	input := service.TicketListInput{
		Search:      queryPtr(c, "search"),
		RequesterID: queryPtr(c, "requester_id"),
		AssigneeID:  queryPtr(c, "assignee_id"),
		BookingID:   queryPtr(c, "booking_id"),
		RoomID:      queryPtr(c, "room_id"),
		HotelID:     queryPtr(c, "hotel_id"),
		CreatedFrom: parseTime(c.Query("created_from")),
		CreatedTo:   parseTime(c.Query("created_to")),
		DueFrom:     parseTime(c.Query("due_from")),
		DueTo:       parseTime(c.Query("due_to")),
		SortBy:      c.Query("sort_by"),
		SortDesc:    c.Query("order", "desc") != "asc",
		Page:        parseInt(c.Query("page"), 1),
		PageSize:    parseInt(c.Query("page_size"), 20),
	}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		input.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		input.Priority = &priority
	}
	if v := c.Query("service_type"); v != "" {
		serviceType := domain.ServiceType(v)
		input.ServiceType = &serviceType
	}
	if v := c.Query("category"); v != "" {
		category := domain.TicketCategory(v)
		input.Category = &category
	}
	return input
}
