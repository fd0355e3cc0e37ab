package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stayhub/service-desk/internal/api/dto"
	"github.com/stayhub/service-desk/internal/repository"
)

// BookingsHandler exposes the guest's reservations; tickets reference
// them for room and hotel context.
type BookingsHandler struct {
	bookings repository.BookingRepository
}

// NewBookingsHandler constructs handler.
func NewBookingsHandler(bookings repository.BookingRepository) *BookingsHandler {
	return &BookingsHandler{bookings: bookings}
}

// Mine GET /bookings/mine.
func (h *BookingsHandler) Mine(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	bookings, err := h.bookings.ListByUser(c.UserContext(), caller.ID)
	if err != nil {
		return err
	}
	items := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, dto.BookingFromDomain(&bookings[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
