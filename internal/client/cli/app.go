package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/config"
	"github.com/dmitrijs2005/hubcli/internal/client/credentials"
	"github.com/dmitrijs2005/hubcli/internal/client/services"
	"github.com/dmitrijs2005/hubcli/internal/client/session"
	"github.com/dmitrijs2005/hubcli/internal/client/views"
	"github.com/dmitrijs2005/hubcli/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	creds    *credentials.Store
	api      client.Client
	session  *session.Store
	profiles services.ProfileService
	admin    services.AdminService

	mu          sync.Mutex
	Mode        Mode
	verify      *views.VerifyEmail
	verifyFor   int64
	unsubscribe func()

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

// NewApp opens the local database and builds the API client, the session
// store and the services on top of it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}

	creds := credentials.NewStore(db)

	api, err := client.NewHTTPClient(c.APIBaseURL, creds,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(logger),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug(ctx, "api client ready", "base_url", api.BaseURL())

	sess := session.New(api, creds, session.WithLogger(logger))

	a := &App{
		config:   c,
		logger:   logger,
		db:       db,
		creds:    creds,
		api:      api,
		session:  sess,
		profiles: services.NewProfileService(api, sess, services.WithLogger(logger)),
		admin:    services.NewAdminService(api, sess, services.WithLogger(logger)),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		now:      time.Now,
	}
	a.unsubscribe = sess.Subscribe(a.onSession)
	return a, nil
}

// onSession forgets the verification prompt once the signed-in account
// changes, so a new account starts without a running cooldown.
func (a *App) onSession(snap session.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.verify == nil {
		return
	}
	if snap.User == nil || snap.User.ID != a.verifyFor {
		a.verify.Close()
		a.verify = nil
	}
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(ctx, fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run restores the session, then serves the REPL until the user exits or
// ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to Hub CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	a.session.Resolve(ctx)
	select {
	case <-a.session.Ready():
	case <-ctx.Done():
		return
	}

	if u := a.session.User(); u != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", u.Handle())
		if a.session.VerificationRequired() {
			a.printVerifyPrompt()
		}
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close releases the session and the local database.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.session.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing database", "err", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.User() != nil
}

func (a *App) verificationPending() bool {
	return a.session.VerificationRequired()
}

func (a *App) canModerate() bool {
	return views.CanOpenAdminPanel(a.session)
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.api.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
	} else {
		a.setMode(ctx, ModeOnline)
	}
}

// StartOnlineStatusWatcher pings the backend every interval and flips Mode
// between online and offline until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
