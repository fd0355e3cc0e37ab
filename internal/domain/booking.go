package domain

import "time"

// BookingStatus enumerates reservation states.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCheckedIn BookingStatus = "CHECKED_IN"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking links a guest to a room for a stay. Tickets reference bookings
// for context and access scoping.
type Booking struct {
	ID        string
	UserID    string
	RoomID    string
	HotelID   string
	CheckIn   time.Time
	CheckOut  time.Time
	Status    BookingStatus
	CreatedAt time.Time
}

// Room is a bookable unit within a hotel.
type Room struct {
	ID        string
	HotelID   string
	Number    string
	Floor     int
	CreatedAt time.Time
}

// Hotel is a property in the platform.
type Hotel struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}
