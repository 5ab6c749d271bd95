package apitest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
)

// PermanentBan is the expiry stored for a ban without one.
var PermanentBan = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// DefaultPassword is used by AddUser when no password is given.
const DefaultPassword = "password123"

type account struct {
	models.Identity
	hash []byte
}

type Server struct {
	*httptest.Server

	secret   []byte
	tokenTTL time.Duration

	mu      sync.Mutex
	now     func() time.Time
	users   map[int64]*account
	nextID  int64
	hits    map[string]int
	resends map[int64]int
}

// New starts a server and stops it when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:   []byte("apitest-signing-key"),
		tokenTTL: time.Hour,
		now:      time.Now,
		users:    make(map[int64]*account),
		nextID:   1,
		hits:     make(map[string]int),
		resends:  make(map[int64]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root the client should be configured with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// SetClock replaces the clock used for bans and token expiry.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countHits)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.optionalAuth)
			r.Get("/users/{idOrUsername}/profile", s.handleProfile)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/user", s.handleCurrentUser)
			r.Post("/email/verification-notification", s.handleResend)
			r.Post("/user/profile", s.handleUpdateProfile)

			r.Route("/admin/users/{id}", func(r chi.Router) {
				r.With(s.requireGroup(privilege.SeniorSupport)).Post("/ban", s.handleBan)
				r.With(s.requireGroup(privilege.SeniorSupport)).Post("/unban", s.handleUnban)
				r.With(s.requireGroup(privilege.Admin)).Put("/group", s.handleChangeGroup)
			})
		})
	})
	return r
}

// AddUser stores u with the given password (DefaultPassword when empty) and
// returns it with its assigned id.
func (s *Server) AddUser(u models.Identity, password string) models.Identity {
	if password == "" {
		password = DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	if u.Group == "" {
		u.Group = privilege.BasicPlan
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = &account{Identity: u.Clone(), hash: hash}
	return u.Clone()
}

// User returns the stored state of id.
func (s *Server) User(id int64) (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		return models.Identity{}, false
	}
	return a.Identity.Clone(), true
}

// MarkVerified sets the email-verified timestamp of id.
func (s *Server) MarkVerified(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.users[id]; ok {
		now := s.now().UTC()
		a.EmailVerifiedAt = &now
	}
}

// Token issues a credential for id valid for ttl (the default when zero).
func (s *Server) Token(id int64, ttl time.Duration) string {
	if ttl == 0 {
		ttl = s.tokenTTL
	}
	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(id, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Hits reports how often the route pattern was served, e.g.
// Hits(http.MethodPost, "/api/admin/users/{id}/ban").
func (s *Server) Hits(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+pattern]
}

// TotalHits counts every request that reached a route.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

// Resends reports how many verification emails were requested for id.
func (s *Server) Resends(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resends[id]
}

func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				s.mu.Lock()
				s.hits[r.Method+" "+p]++
				s.mu.Unlock()
			}
		}
	})
}

// lookupLocked resolves a numeric id first, then a username.
func (s *Server) lookupLocked(idOrUsername string) *account {
	if id, err := strconv.ParseInt(idOrUsername, 10, 64); err == nil {
		if a, ok := s.users[id]; ok {
			return a
		}
	}
	for _, a := range s.users {
		if a.Username != nil && strings.EqualFold(*a.Username, idOrUsername) {
			return a
		}
	}
	return nil
}

func (s *Server) takenLocked(field, value string, except int64) bool {
	for id, a := range s.users {
		if id == except {
			continue
		}
		switch field {
		case "email":
			if strings.EqualFold(a.Email, value) {
				return true
			}
		case "username":
			if a.Username != nil && strings.EqualFold(*a.Username, value) {
				return true
			}
		}
	}
	return false
}
