package dto

import (
	"time"

	"github.com/stayhub/service-desk/internal/domain"
)

// UserRegisterRequest payload for new guests.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public account view.
type UserResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// UserFromDomain maps an account to its response shape.
func UserFromDomain(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

// CreateStaffRequest is the admin payload for provisioning staff.
type CreateStaffRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// BookingResponse is the guest-facing reservation view.
type BookingResponse struct {
	ID       string               `json:"id"`
	RoomID   string               `json:"room_id"`
	HotelID  string               `json:"hotel_id"`
	CheckIn  time.Time            `json:"check_in"`
	CheckOut time.Time            `json:"check_out"`
	Status   domain.BookingStatus `json:"status"`
}

// BookingFromDomain maps a reservation to its response shape.
func BookingFromDomain(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:       b.ID,
		RoomID:   b.RoomID,
		HotelID:  b.HotelID,
		CheckIn:  b.CheckIn,
		CheckOut: b.CheckOut,
		Status:   b.Status,
	}
}
