package apifake

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/restaurant-console/internal/httpx"
	"github.com/jrsteele09/restaurant-console/internal/utils"
	"github.com/jrsteele09/restaurant-console/internal/validation"
	"github.com/jrsteele09/restaurant-console/restaurant"
	"github.com/jrsteele09/restaurant-console/users"
)

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	out := make([]restaurant.Reservation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.reservations[id])
	}
	s.lock.Unlock()
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req restaurant.CreateReservationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account := accountFrom(r.Context())
	now := s.nowTime().UTC().Format(time.RFC3339)
	res := &restaurant.Reservation{
		ID:              uuid.NewString(),
		UserID:          strconv.FormatInt(account.ID, 10),
		Username:        account.Username,
		TableNumber:     req.TableNumber,
		GuestCount:      req.GuestCount,
		ReservationDate: req.ReservationDate,
		ReservationTime: req.ReservationTime,
		Status:          restaurant.StatusPending,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		SpecialRequests: utils.OrNil(req.SpecialRequests),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.lock.Lock()
	s.reservations[res.ID] = res
	s.order = append(s.order, res.ID)
	created := *res
	s.lock.Unlock()
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status restaurant.ReservationStatus `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil || !body.Status.Valid() {
		httpx.WriteError(w, http.StatusBadRequest, "status must be one of PENDING, CONFIRMED, CANCELLED, SEATED, NO_SHOW")
		return
	}

	s.lock.Lock()
	res, ok := s.reservations[chi.URLParam(r, "id")]
	if !ok {
		s.lock.Unlock()
		httpx.WriteError(w, http.StatusNotFound, "Reservation not found")
		return
	}
	res.Status = body.Status
	res.UpdatedAt = s.nowTime().UTC().Format(time.RFC3339)
	updated := *res
	s.lock.Unlock()

	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.lock.Lock()
	_, ok := s.reservations[id]
	if ok {
		delete(s.reservations, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.lock.Unlock()

	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "Reservation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.users.List()
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "could not list users")
		return
	}
	out := make([]restaurant.Employee, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, employeeOf(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// handleCreateEmployee creates a STAFF account
func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req restaurant.EmployeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.addAccount(&users.Account{
		User:  users.User{Username: req.Username, Role: users.RoleStaff},
		Name:  req.Name,
		Email: req.Email,
	}, req.Password)
	if errors.Is(err, UsernameTakenErr) {
		httpx.WriteError(w, http.StatusConflict, "Username already exists")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("creating employee failed")
		httpx.WriteError(w, http.StatusInternalServerError, "could not create user")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, employeeOf(account))
}

func employeeOf(a *users.Account) restaurant.Employee {
	return restaurant.Employee{
		ID:       strconv.FormatInt(a.ID, 10),
		Username: a.Username,
		Name:     a.Name,
		Email:    a.Email,
	}
}
