// Package restaurant is the typed client for the reservation and employee
// endpoints of the restaurant API.
package restaurant

import (
	"fmt"
	"strings"
)

// ReservationStatus is the lifecycle state of a booking
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusSeated    ReservationStatus = "SEATED"
	StatusNoShow    ReservationStatus = "NO_SHOW"
)

// AllStatuses is the filter value that keeps every reservation
const AllStatuses = "ALL"

// Statuses lists every status in display order
var Statuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusSeated, StatusNoShow}

// ParseStatus accepts any case and "no show" spelt with a space
func ParseStatus(s string) (ReservationStatus, error) {
	st := ReservationStatus(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "_"))
	if !st.Valid() {
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
	return st, nil
}

func (s ReservationStatus) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Label is the status as shown to staff, e.g. "NO SHOW"
func (s ReservationStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Reservation as returned by the API
type Reservation struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId"`
	Username        string            `json:"username"`
	TableNumber     int               `json:"tableNumber"`
	GuestCount      int               `json:"guestCount"`
	ReservationDate string            `json:"reservationDate"` // YYYY-MM-DD
	ReservationTime string            `json:"reservationTime"` // HH:mm:ss
	Status          ReservationStatus `json:"status"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	CustomerEmail   string            `json:"customerEmail"`
	SpecialRequests *string           `json:"specialRequests"`
	Notes           *string           `json:"notes"`
	CreatedAt       string            `json:"createdAt"`
	UpdatedAt       string            `json:"updatedAt"`
}

// CreateReservationRequest is the body for a new booking. Status is always
// sent as PENDING.
type CreateReservationRequest struct {
	ReservationDate string            `json:"reservationDate" validate:"required,datetime=2006-01-02"`
	ReservationTime string            `json:"reservationTime" validate:"required"`
	GuestCount      int               `json:"guestCount" validate:"min=1"`
	Status          ReservationStatus `json:"status"`
	TableNumber     int               `json:"tableNumber" validate:"min=1"`
	CustomerName    string            `json:"customerName" validate:"required"`
	CustomerPhone   string            `json:"customerPhone" validate:"required"`
	CustomerEmail   string            `json:"customerEmail" validate:"required,email"`
	SpecialRequests string            `json:"specialRequests,omitempty"`
}

type statusUpdate struct {
	Status ReservationStatus `json:"status"`
}

// Employee as returned by the users endpoint
type Employee struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// EmployeeRequest creates an employee account
type EmployeeRequest struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
