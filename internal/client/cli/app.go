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

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/config"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/dmitrijs2005/jobportal/internal/client/otp"
	"github.com/dmitrijs2005/jobportal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/jobportal/internal/client/reset"
	"github.com/dmitrijs2005/jobportal/internal/client/services"
	"github.com/dmitrijs2005/jobportal/internal/client/session"
	"github.com/dmitrijs2005/jobportal/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	db          *sql.DB
	store       *session.Store
	authService services.AuthService
	logger      logging.Logger
	reader      *bufio.Reader
	out         io.Writer

	unsubscribe func()

	mu        sync.Mutex
	mode      Mode
	route     models.Route
	challenge *otp.Challenge
	resetFlow *reset.Flow
}

// NewApp wires the session database, the session store, the API client and
// the services. The stored session, if any, is restored.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store := session.NewStore(metadata.NewSQLiteRepository(db), logger)
	if err := store.Restore(ctx); err != nil {
		logger.Warn(ctx, "could not restore session", "error", err)
	}

	a := &App{
		config: c,
		db:     db,
		store:  store,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		route:  models.RouteLogin,
	}
	if u := store.User(); u != nil {
		a.route = models.DashboardRoute(u.Role)
	}
	a.watchSession()

	apiClient, err := client.NewHTTPClient(c.APIBaseURL, store,
		client.WithLogger(logger),
		client.WithTimeout(c.RequestTimeout),
		client.WithRateLimit(c.RateLimit, c.RateBurst),
		client.WithOnInvalidate(a.onSessionInvalidated),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a.authService = services.NewAuthService(apiClient, store, logger, services.AuthOptions{
		MockOTP:     c.MockOTP,
		OTPDuration: c.OTPDuration,
	})
	return a, nil
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.mu.Lock()
	ch := a.challenge
	a.challenge = nil
	a.mu.Unlock()
	if ch != nil {
		ch.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.store.IsAuthenticated()
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	flow := a.resetFlow
	a.mu.Unlock()

	if flow != nil {
		flow.SetOnline(mode != ModeOffline)
	}
	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) navigate(r models.Route) {
	a.mu.Lock()
	a.route = r
	a.mu.Unlock()
}

func (a *App) Route() models.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) watchSession() {
	a.unsubscribe = a.store.Subscribe(a.onSessionChange)
}

// onSessionChange keeps the route behind the session: once the session is
// gone no dashboard stays reachable.
func (a *App) onSessionChange(st session.State) {
	if st.IsAuthenticated() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.route != models.RouteLogin {
		a.logger.Debug(context.Background(), "session ended, leaving dashboard", "route", string(a.route))
		a.route = models.RouteLogin
	}
}

// onSessionInvalidated runs when the backend rejected the refresh token.
func (a *App) onSessionInvalidated(ctx context.Context) {
	a.navigate(models.RouteLogin)
	fmt.Fprintln(a.out, "Your session has expired. Please log in again.")
}

// StartOnlineStatusWatcher pings the backend every interval and flips the
// connectivity mode until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
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

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}
