package apifake

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/restaurant-console/internal/httpx"
	"github.com/jrsteele09/restaurant-console/users"
)

type contextKey string

const accountContextKey contextKey = "account"

// requireBearer verifies the access token and loads its account
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}
		claims, err := s.issuer.Verify(strings.TrimSpace(header[7:]))
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		account, err := s.users.GetByID(id)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "user no longer exists")
			return
		}
		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireRoles(roles ...users.RoleType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := accountFrom(r.Context())
			if account == nil {
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !account.HasRole(roles...) {
				httpx.WriteError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accountFrom(ctx context.Context) *users.Account {
	account, _ := ctx.Value(accountContextKey).(*users.Account)
	return account
}
