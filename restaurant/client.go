package restaurant

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/restaurant-console/apiclient"
	"github.com/jrsteele09/restaurant-console/internal/validation"
)

const (
	ReservationsPath = "/v1/private/reservations"
	EmployeesPath    = "/v1/private/users"
)

// Doer is the part of the HTTP adapter the client needs
type Doer interface {
	Get(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
	Patch(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
}

// Client calls the collaborator endpoints. It carries whatever credentials
// the adapter attaches and never touches the session itself.
type Client struct {
	api Doer
}

func NewClient(api Doer) *Client {
	return &Client{api: api}
}

func (c *Client) Reservations(ctx context.Context) ([]Reservation, error) {
	var out []Reservation
	if err := c.api.Get(ctx, ReservationsPath, &out); err != nil {
		return nil, errors.Wrap(err, "[Client.Reservations]")
	}
	return out, nil
}

// CreateReservation validates field presence only; conflicts are the
// server's call.
func (c *Client) CreateReservation(ctx context.Context, req CreateReservationRequest) (*Reservation, error) {
	req.Status = StatusPending
	if err := validation.Struct(req); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateReservation] invalid reservation")
	}
	var out Reservation
	if err := c.api.Post(ctx, ReservationsPath, req, &out); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateReservation]")
	}
	return &out, nil
}

func (c *Client) UpdateReservationStatus(ctx context.Context, id string, status ReservationStatus) (*Reservation, error) {
	if err := validID(id); err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateReservationStatus]")
	}
	if !status.Valid() {
		return nil, errors.Errorf("[Client.UpdateReservationStatus] unknown status %q", status)
	}
	var out Reservation
	if err := c.api.Patch(ctx, reservationPath(id)+"/status", statusUpdate{Status: status}, &out); err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateReservationStatus]")
	}
	return &out, nil
}

func (c *Client) DeleteReservation(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return errors.Wrap(err, "[Client.DeleteReservation]")
	}
	if err := c.api.Delete(ctx, reservationPath(id), nil); err != nil {
		return errors.Wrap(err, "[Client.DeleteReservation]")
	}
	return nil
}

func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	var out []Employee
	if err := c.api.Get(ctx, EmployeesPath, &out); err != nil {
		return nil, errors.Wrap(err, "[Client.Employees]")
	}
	return out, nil
}

func (c *Client) CreateEmployee(ctx context.Context, req EmployeeRequest) (*Employee, error) {
	if err := validation.Struct(req); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateEmployee] invalid employee")
	}
	var out Employee
	if err := c.api.Post(ctx, EmployeesPath, req, &out); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateEmployee]")
	}
	return &out, nil
}

func reservationPath(id string) string {
	return ReservationsPath + "/" + url.PathEscape(id)
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("reservation id is required")
	}
	return nil
}
