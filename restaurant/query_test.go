package restaurant_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/restaurant-console/restaurant"
)

func sampleReservations() []restaurant.Reservation {
	return []restaurant.Reservation{
		{ID: "1", CustomerName: "Ada Lovelace", CustomerEmail: "ada@example.com", CustomerPhone: "555-0100", ReservationDate: "2026-03-14", ReservationTime: "19:30:00", TableNumber: 4, Status: restaurant.StatusPending},
		{ID: "2", CustomerName: "Grace Hopper", CustomerEmail: "grace@navy.mil", CustomerPhone: "555-0199", ReservationDate: "2026-03-12", ReservationTime: "18:00:00", TableNumber: 2, Status: restaurant.StatusConfirmed},
		{ID: "3", CustomerName: "Alan Turing", CustomerEmail: "alan@example.com", CustomerPhone: "555-0142", ReservationDate: "2026-03-13", ReservationTime: "20:15:00", TableNumber: 9, Status: restaurant.StatusNoShow},
	}
}

func ids(list []restaurant.Reservation) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func TestParseStatus(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    restaurant.ReservationStatus
		wantErr bool
	}{
		"upper":      {in: "CONFIRMED", want: restaurant.StatusConfirmed},
		"lower":      {in: "seated", want: restaurant.StatusSeated},
		"with space": {in: "no show", want: restaurant.StatusNoShow},
		"unknown":    {in: "EATING", wantErr: true},
		"all":        {in: "ALL", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := restaurant.ParseStatus(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestStatusLabel(t *testing.T) {
	require.Equal(t, "NO SHOW", restaurant.StatusNoShow.Label())
	require.Equal(t, "PENDING", restaurant.StatusPending.Label())
}

func TestFilterByStatus(t *testing.T) {
	list := sampleReservations()

	require.Equal(t, []string{"1", "2", "3"}, ids(restaurant.FilterByStatus(list, "ALL")))
	require.Equal(t, []string{"1", "2", "3"}, ids(restaurant.FilterByStatus(list, "")))
	require.Equal(t, []string{"2"}, ids(restaurant.FilterByStatus(list, "confirmed")))
	require.Equal(t, []string{"3"}, ids(restaurant.FilterByStatus(list, "NO_SHOW")))
	require.Empty(t, restaurant.FilterByStatus(list, "SEATED"))
	require.Nil(t, restaurant.FilterByStatus(list, "bogus"))
}

func TestSearch(t *testing.T) {
	list := sampleReservations()

	require.Equal(t, []string{"1"}, ids(restaurant.Search(list, "LOVELACE")))
	require.Equal(t, []string{"2"}, ids(restaurant.Search(list, "navy")))
	require.Equal(t, []string{"3"}, ids(restaurant.Search(list, "0142")))
	require.Equal(t, []string{"1", "3"}, ids(restaurant.Search(list, "example.com")))
	require.Len(t, restaurant.Search(list, ""), 3)
}

func TestQueryApply(t *testing.T) {
	list := sampleReservations()

	tests := map[string]struct {
		query restaurant.Query
		want  []string
	}{
		"default is newest first": {query: restaurant.Query{}, want: []string{"1", "3", "2"}},
		"ascending date":          {query: restaurant.Query{Ascending: true}, want: []string{"2", "3", "1"}},
		"by table":                {query: restaurant.Query{SortKey: restaurant.SortByTable, Ascending: true}, want: []string{"2", "1", "3"}},
		"by customer":             {query: restaurant.Query{SortKey: restaurant.SortByCustomer, Ascending: true}, want: []string{"1", "3", "2"}},
		"by time":                 {query: restaurant.Query{SortKey: restaurant.SortByTime, Ascending: true}, want: []string{"2", "1", "3"}},
		"search and status":       {query: restaurant.Query{Search: "example.com", Status: "PENDING"}, want: []string{"1"}},
		"status with no matches":  {query: restaurant.Query{Status: "CANCELLED"}, want: []string{}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, ids(tc.query.Apply(list)))
		})
	}

	// Apply never reorders its input
	require.Equal(t, []string{"1", "2", "3"}, ids(list))
}
