package apifake_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/restaurant-console/apifake"
	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/restaurant"
	"github.com/jrsteele09/restaurant-console/token"
	"github.com/jrsteele09/restaurant-console/users"
)

type fixture struct {
	fake *apifake.Server
	srv  *httptest.Server
}

func setupFixture(t *testing.T, options ...apifake.Option) *fixture {
	t.Helper()
	fake, err := apifake.New(options...)
	require.NoError(t, err)
	_, err = fake.AddUser("admin", "admin-pass", users.RoleAdmin)
	require.NoError(t, err)
	_, err = fake.AddUser("waiter", "waiter-pass", users.RoleStaff)
	require.NoError(t, err)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return &fixture{fake: fake, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out.Bytes()
}

func (f *fixture) login(t *testing.T, username, password string) auth.LoginResponse {
	t.Helper()
	status, body := f.do(t, http.MethodPost, auth.LoginPath, "", auth.Credentials{Username: username, Password: password})
	require.Equal(t, http.StatusOK, status, string(body))
	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestNew_RejectsBadTTL(t *testing.T) {
	_, err := apifake.New(apifake.WithTokenTTL(0))
	require.Error(t, err)
}

func TestAddUser_RejectsDuplicatesAndUnknownRoles(t *testing.T) {
	f := setupFixture(t)

	_, err := f.fake.AddUser("admin", "x", users.RoleAdmin)
	require.ErrorIs(t, err, apifake.UsernameTakenErr)

	_, err = f.fake.AddUser("chef", "x", users.RoleType("CHEF"))
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := setupFixture(t)

	tests := map[string]struct {
		creds      auth.Credentials
		wantStatus int
		wantMsg    string
	}{
		"valid":          {creds: auth.Credentials{Username: "admin", Password: "admin-pass"}, wantStatus: http.StatusOK},
		"wrong password": {creds: auth.Credentials{Username: "admin", Password: "nope"}, wantStatus: http.StatusUnauthorized, wantMsg: "Invalid username or password"},
		"unknown user":   {creds: auth.Credentials{Username: "ghost", Password: "x"}, wantStatus: http.StatusUnauthorized, wantMsg: "Invalid username or password"},
		"missing fields": {creds: auth.Credentials{}, wantStatus: http.StatusBadRequest, wantMsg: "Username and password are required"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			status, body := f.do(t, http.MethodPost, auth.LoginPath, "", tc.creds)
			require.Equal(t, tc.wantStatus, status)
			if tc.wantMsg != "" {
				var e struct {
					Message string `json:"message"`
				}
				require.NoError(t, json.Unmarshal(body, &e))
				require.Equal(t, tc.wantMsg, e.Message)
				return
			}
			var resp auth.LoginResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			require.NotEmpty(t, resp.AccessToken)
			require.NotEmpty(t, resp.RefreshToken)
		})
	}
}

func TestAccessTokensCarryTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := setupFixture(t, apifake.WithNowTime(func() time.Time { return now }), apifake.WithTokenTTL(time.Minute))

	resp := f.login(t, "admin", "admin-pass")

	exp, ok := token.Expiry(resp.AccessToken)
	require.True(t, ok)
	require.True(t, exp.Equal(now.Add(time.Minute)))
}

func TestProfile(t *testing.T) {
	f := setupFixture(t)
	resp := f.login(t, "waiter", "waiter-pass")

	status, body := f.do(t, http.MethodGet, auth.ProfilePath, resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var user users.User
	require.NoError(t, json.Unmarshal(body, &user))
	require.Equal(t, "waiter", user.Username)
	require.Equal(t, users.RoleStaff, user.Role)

	status, _ = f.do(t, http.MethodGet, auth.ProfilePath, "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.do(t, http.MethodGet, auth.ProfilePath, "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	f.fake.SetFailProfile(true)
	status, _ = f.do(t, http.MethodGet, auth.ProfilePath, resp.AccessToken, nil)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, 4, f.fake.Calls(auth.ProfilePath))
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var elapsed atomic.Int64
	clock := func() time.Time { return now.Add(time.Duration(elapsed.Load())) }
	f := setupFixture(t, apifake.WithNowTime(clock), apifake.WithTokenTTL(time.Minute))
	resp := f.login(t, "admin", "admin-pass")

	elapsed.Store(int64(2 * time.Minute))
	status, _ := f.do(t, http.MethodGet, auth.ProfilePath, resp.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRefresh_KeepsRefreshToken(t *testing.T) {
	f := setupFixture(t)
	resp := f.login(t, "admin", "admin-pass")

	status, body := f.do(t, http.MethodPost, auth.RefreshPath, "", auth.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	var refreshed map[string]string
	require.NoError(t, json.Unmarshal(body, &refreshed))
	require.NotEmpty(t, refreshed["accessToken"])
	require.NotContains(t, refreshed, "refreshToken")

	// Still valid after use
	status, _ = f.do(t, http.MethodPost, auth.RefreshPath, "", auth.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Equal(t, http.StatusOK, status)
}

func TestRefresh_Failures(t *testing.T) {
	f := setupFixture(t)
	resp := f.login(t, "admin", "admin-pass")

	status, _ := f.do(t, http.MethodPost, auth.RefreshPath, "", auth.RefreshRequest{})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodPost, auth.RefreshPath, "", auth.RefreshRequest{RefreshToken: "unknown"})
	require.Equal(t, http.StatusUnauthorized, status)

	f.fake.SetFailRefresh(true)
	status, _ = f.do(t, http.MethodPost, auth.RefreshPath, "", auth.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, status)

	f.fake.SetFailRefresh(false)
	f.fake.RevokeRefreshTokens()
	status, _ = f.do(t, http.MethodPost, auth.RefreshPath, "", auth.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestReservationsLifecycle(t *testing.T) {
	f := setupFixture(t)
	access := f.login(t, "waiter", "waiter-pass").AccessToken

	status, _ := f.do(t, http.MethodGet, restaurant.ReservationsPath, "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := f.do(t, http.MethodPost, restaurant.ReservationsPath, access, restaurant.CreateReservationRequest{
		ReservationDate: "2026-03-14",
		ReservationTime: "19:30:00",
		GuestCount:      4,
		Status:          restaurant.StatusPending,
		TableNumber:     7,
		CustomerName:    "Ada Lovelace",
		CustomerPhone:   "555-0100",
		CustomerEmail:   "ada@example.com",
		SpecialRequests: "window seat",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created restaurant.Reservation
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "waiter", created.Username)
	require.Equal(t, restaurant.StatusPending, created.Status)
	require.NotNil(t, created.SpecialRequests)
	require.Equal(t, "window seat", *created.SpecialRequests)
	require.Nil(t, created.Notes)

	status, body = f.do(t, http.MethodPatch, restaurant.ReservationsPath+"/"+created.ID+"/status", access, map[string]string{"status": "SEATED"})
	require.Equal(t, http.StatusOK, status)
	var updated restaurant.Reservation
	require.NoError(t, json.Unmarshal(body, &updated))
	require.Equal(t, restaurant.StatusSeated, updated.Status)

	status, _ = f.do(t, http.MethodPatch, restaurant.ReservationsPath+"/"+created.ID+"/status", access, map[string]string{"status": "EATING"})
	require.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, restaurant.ReservationsPath, access, nil)
	require.Equal(t, http.StatusOK, status)
	var list []restaurant.Reservation
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	status, _ = f.do(t, http.MethodDelete, restaurant.ReservationsPath+"/"+created.ID, access, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = f.do(t, http.MethodDelete, restaurant.ReservationsPath+"/"+created.ID, access, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestCreateReservation_ValidatesFields(t *testing.T) {
	f := setupFixture(t)
	access := f.login(t, "waiter", "waiter-pass").AccessToken

	status, body := f.do(t, http.MethodPost, restaurant.ReservationsPath, access, restaurant.CreateReservationRequest{GuestCount: 0})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, string(body), "customerName is required")
}

func TestEmployees_CreateNeedsManagerRole(t *testing.T) {
	f := setupFixture(t)
	staff := f.login(t, "waiter", "waiter-pass").AccessToken
	admin := f.login(t, "admin", "admin-pass").AccessToken
	req := restaurant.EmployeeRequest{Username: "chef", Name: "Gordon", Email: "chef@example.com", Password: "knives"}

	status, _ := f.do(t, http.MethodPost, restaurant.EmployeesPath, staff, req)
	require.Equal(t, http.StatusForbidden, status)

	status, body := f.do(t, http.MethodPost, restaurant.EmployeesPath, admin, req)
	require.Equal(t, http.StatusCreated, status)
	var created restaurant.Employee
	require.NoError(t, json.Unmarshal(body, &created))
	require.Equal(t, "Gordon", created.Name)

	status, _ = f.do(t, http.MethodPost, restaurant.EmployeesPath, admin, req)
	require.Equal(t, http.StatusConflict, status)

	// The new employee can log in as staff
	chef := f.login(t, "chef", "knives").AccessToken
	status, body = f.do(t, http.MethodGet, auth.ProfilePath, chef, nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), `"role":"STAFF"`)

	status, body = f.do(t, http.MethodGet, restaurant.EmployeesPath, staff, nil)
	require.Equal(t, http.StatusOK, status)
	var list []restaurant.Employee
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 3)
}

func TestUnknownRoute(t *testing.T) {
	f := setupFixture(t)
	status, body := f.do(t, http.MethodGet, "/v2/nothing", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Contains(t, string(body), "route not found")
}
