package restaurant

import (
	"sort"
	"strings"
)

// SortKey is a column reservations can be ordered by
type SortKey string

const (
	SortByDate     SortKey = "reservationDate"
	SortByTime     SortKey = "reservationTime"
	SortByCustomer SortKey = "customerName"
	SortByTable    SortKey = "tableNumber"
	SortByStatus   SortKey = "status"
)

// Query narrows and orders a reservation list the way the staff table does
type Query struct {
	Search    string  // Matches name or email (any case) or phone
	Status    string  // A status, or "ALL"/"" for everything
	SortKey   SortKey // Defaults to reservation date
	Ascending bool    // Newest first unless set
}

// FilterByStatus keeps reservations in status. "ALL" and "" keep everything.
func FilterByStatus(list []Reservation, status string) []Reservation {
	if status == "" || strings.EqualFold(status, AllStatuses) {
		return list
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil
	}
	out := make([]Reservation, 0, len(list))
	for _, r := range list {
		if r.Status == st {
			out = append(out, r)
		}
	}
	return out
}

// Search keeps reservations whose customer name or email contains term in
// any case, or whose phone contains it verbatim.
func Search(list []Reservation, term string) []Reservation {
	if term == "" {
		return list
	}
	lower := strings.ToLower(term)
	out := make([]Reservation, 0, len(list))
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.CustomerName), lower) ||
			strings.Contains(r.CustomerPhone, term) ||
			strings.Contains(strings.ToLower(r.CustomerEmail), lower) {
			out = append(out, r)
		}
	}
	return out
}

// Apply runs the search, the status filter and the sort. The input slice is
// not reordered.
func (q Query) Apply(list []Reservation) []Reservation {
	out := append([]Reservation(nil), FilterByStatus(Search(list, q.Search), q.Status)...)
	key := q.SortKey
	if key == "" {
		key = SortByDate
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Ascending {
			return less(out[i], out[j], key)
		}
		return less(out[j], out[i], key)
	})
	return out
}

func less(a, b Reservation, key SortKey) bool {
	switch key {
	case SortByTime:
		return a.ReservationTime < b.ReservationTime
	case SortByCustomer:
		return a.CustomerName < b.CustomerName
	case SortByTable:
		return a.TableNumber < b.TableNumber
	case SortByStatus:
		return a.Status < b.Status
	default:
		// ISO dates order lexically
		return a.ReservationDate < b.ReservationDate
	}
}
