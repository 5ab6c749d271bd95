package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/credentials"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/logging"
)

var (
	ErrNoSession = errors.New("no active session")
	ErrStale     = errors.New("session changed while the request was in flight")
	ErrClosed    = errors.New("session store closed")
)

type State int

const (
	StateUnresolved State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// API is the part of the backend the store talks to.
type API interface {
	CurrentUser(ctx context.Context) (models.Identity, error)
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	Register(ctx context.Context, reg models.Registration) error
	ResendVerification(ctx context.Context) error
}

// Credentials persists the bearer token between runs.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Discard(ctx context.Context) error
}

// Snapshot is an immutable view of the store handed to subscribers.
type Snapshot struct {
	State                State
	User                 *models.Identity
	VerificationRequired bool
	Epoch                uint64
}

type Store struct {
	api    API
	creds  Credentials
	now    func() time.Time
	logger logging.Logger

	mu      sync.Mutex
	state   State
	user    *models.Identity
	verify  bool
	epoch   uint64
	closed  bool
	subs    map[int]func(Snapshot)
	nextSub int

	resolveOnce sync.Once
	readyOnce   sync.Once
	ready       chan struct{}
}

type Option func(*Store)

// WithClock replaces time.Now, which drives ban checks and token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(api API, creds Credentials, opts ...Option) *Store {
	s := &Store{
		api:    api,
		creds:  creds,
		now:    time.Now,
		logger: logging.Nop(),
		subs:   make(map[int]func(Snapshot)),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready is closed once the store has left StateUnresolved.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Resolve runs the startup transition. Only the first call does any work;
// later calls wait for it to finish.
func (s *Store) Resolve(ctx context.Context) {
	s.resolveOnce.Do(func() { s.resolve(ctx) })
	<-s.ready
}

func (s *Store) resolve(ctx context.Context) {
	defer s.markReady()

	epoch := s.Epoch()

	token, err := s.creds.Token(ctx)
	if err != nil {
		s.logger.Warn(ctx, "read stored credential", "error", err)
		s.settleAnonymous(epoch)
		return
	}
	if token == "" {
		s.settleAnonymous(epoch)
		return
	}

	if exp, ok := credentials.ExpiresAt(token); ok && !exp.After(s.now()) {
		s.logger.Info(ctx, "stored credential expired", "expired_at", exp)
		s.discardAt(ctx, epoch)
		s.settleAnonymous(epoch)
		return
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Info(ctx, "stored credential rejected, discarding", "error", err)
			s.discardAt(ctx, epoch)
		}
		s.settleAnonymous(epoch)
		return
	}

	s.mu.Lock()
	if s.epoch != epoch || s.closed {
		s.mu.Unlock()
		return
	}
	s.setUserLocked(user)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info(ctx, "session restored", "user_id", user.ID, "group", user.Group)
	s.publish(snap)
}

func (s *Store) settleAnonymous(epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch || s.state != StateUnresolved {
		s.mu.Unlock()
		return
	}
	s.state = StateAnonymous
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// discardAt removes the stored credential unless a login or logout happened
// since epoch. The check and the removal share the lock Login saves under.
func (s *Store) discardAt(ctx context.Context, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.closed {
		return
	}
	if err := s.creds.Discard(ctx); err != nil {
		s.logger.Warn(ctx, "discard credential", "error", err)
	}
}

// Login exchanges credentials for a token. On failure the store is left
// untouched and nothing is persisted.
func (s *Store) Login(ctx context.Context, c models.Credentials) error {
	epoch, err := s.begin()
	if err != nil {
		return err
	}

	res, err := s.api.Login(ctx, c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch || s.closed {
		s.mu.Unlock()
		return ErrStale
	}
	if err := s.creds.Save(ctx, res.AccessToken); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist credential: %w", err)
	}
	s.epoch++
	s.setUserLocked(res.User)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.markReady()
	s.logger.Info(ctx, "logged in", "user_id", res.User.ID, "group", res.User.Group)
	s.publish(snap)
	return nil
}

// Register creates an account. It never signs the user in.
func (s *Store) Register(ctx context.Context, reg models.Registration) error {
	if _, err := s.begin(); err != nil {
		return err
	}
	return s.api.Register(ctx, reg)
}

// Logout drops the credential and the identity. Local state is cleared even
// when the credential cannot be removed from disk; that error is returned.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	s.user = nil
	s.verify = false
	if !s.closed {
		s.state = StateAnonymous
	}
	err := s.creds.Discard(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.markReady()
	s.logger.Info(ctx, "logged out")
	s.publish(snap)
	if err != nil {
		return fmt.Errorf("discard credential: %w", err)
	}
	return nil
}

// ResendVerificationEmail asks the backend for a new verification link.
func (s *Store) ResendVerificationEmail(ctx context.Context) error {
	s.mu.Lock()
	hasUser := s.user != nil
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if !hasUser {
		return ErrNoSession
	}
	return s.api.ResendVerification(ctx)
}

// Refresh fetches the identity again, e.g. after the email was verified in
// a browser.
func (s *Store) Refresh(ctx context.Context) error {
	epoch, err := s.begin()
	if err != nil {
		return err
	}
	if s.User() == nil {
		return ErrNoSession
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return s.UpdateUserAt(epoch, models.PatchFrom(user))
}

// UpdateUser merges the supplied fields into the identity. It reports false
// and does nothing when there is no identity.
func (s *Store) UpdateUser(p models.IdentityPatch) bool {
	s.mu.Lock()
	return s.applyLocked(p)
}

// UpdateUserAt is UpdateUser for the result of a request started at epoch.
func (s *Store) UpdateUserAt(epoch uint64, p models.IdentityPatch) error {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return ErrStale
	}
	if !s.applyLocked(p) {
		return ErrNoSession
	}
	return nil
}

// applyLocked releases mu.
func (s *Store) applyLocked(p models.IdentityPatch) bool {
	if s.user == nil || s.closed {
		s.mu.Unlock()
		return false
	}
	u := s.user.Apply(p)
	s.user = &u
	if p.EmailVerifiedAt.Set {
		s.verify = !u.Verified()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return true
}

// User returns a copy of the identity, or nil.
func (s *Store) User() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.user)
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// VerificationRequired reports whether the signed-in email is unverified and
// the prompt has not been dismissed.
func (s *Store) VerificationRequired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verify
}

func (s *Store) DismissVerification() {
	s.mu.Lock()
	if !s.verify {
		s.mu.Unlock()
		return
	}
	s.verify = false
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// HasPrivilege reports whether the identity belongs to any of required, or
// to a group ranked above one of them. It is false without an identity.
func (s *Store) HasPrivilege(required ...privilege.Group) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	return privilege.Meets(s.user.Group, required...)
}

// IsBanned evaluates the ban expiry against the clock on every call.
func (s *Store) IsBanned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	return s.user.IsBannedAt(s.now())
}

// Epoch is the current generation; see UpdateUserAt.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every change. fn runs on the goroutine that made
// the change and must not block.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close drops subscribers and invalidates in-flight requests. The persisted
// credential is kept.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.epoch++
	s.subs = make(map[int]func(Snapshot))
	s.mu.Unlock()
	s.markReady()
}

func (s *Store) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.epoch, nil
}

func (s *Store) setUserLocked(u models.Identity) {
	c := u.Clone()
	s.user = &c
	s.state = StateAuthenticated
	s.verify = !c.Verified()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:                s.state,
		User:                 cloneUser(s.user),
		VerificationRequired: s.verify,
		Epoch:                s.epoch,
	}
}

func (s *Store) publish(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func cloneUser(u *models.Identity) *models.Identity {
	if u == nil {
		return nil
	}
	c := u.Clone()
	return &c
}
