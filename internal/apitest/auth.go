package apitest

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/common"
)

type ctxKey struct{}

func actorID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

// authenticate returns the user id behind the bearer token of r.
func (s *Server) authenticate(r *http.Request) (int64, bool) {
	raw := r.Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(raw, common.BearerPrefix) {
		return 0, false
	}
	s.mu.Lock()
	now := s.now
	s.mu.Unlock()

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(raw, common.BearerPrefix), &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}

	s.mu.Lock()
	_, exists := s.users[id]
	s.mu.Unlock()
	return id, exists
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.authenticate(r)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := s.authenticate(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
		}
		next.ServeHTTP(w, r)
	})
}

// requireGroup rejects actors ranked below min. It runs after requireAuth.
func (s *Server) requireGroup(min privilege.Group) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := actorID(r.Context())
			s.mu.Lock()
			a := s.users[id]
			allowed := a != nil && privilege.Meets(a.Group, min)
			s.mu.Unlock()

			if !allowed {
				writeMessage(w, http.StatusForbidden, "This action is unauthorized.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
