// Package rest exposes the backend's JSON API over HTTP with a chi router.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/logging"
	"github.com/dmitrijs2005/jobportal/internal/server/models"
	"github.com/dmitrijs2005/jobportal/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// BasePath prefixes every route.
const BasePath = "/api"

// UserService is the business logic the handlers call into.
type UserService interface {
	Signup(ctx context.Context, role models.Role, in services.SignupInput) (*models.User, error)
	VerifyAccount(ctx context.Context, token string, role models.Role, userID string) error
	Login(ctx context.Context, role models.Role, email, password string) error
	ResendOTP(ctx context.Context, role models.Role, email string) error
	VerifyOTP(ctx context.Context, role models.Role, email, otp string) (*services.TokenPair, *models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Me(ctx context.Context, userID string) (*models.User, error)
}

type Server struct {
	address   string
	users     UserService
	logger    logging.Logger
	jwtSecret []byte
	limiter   *ipRateLimiter
}

func NewServer(address string, l logging.Logger, us UserService, secretKey string, rps float64, burst int) *Server {
	s := &Server{
		address:   address,
		logger:    l.With("module", "rest_server"),
		users:     us,
		jwtSecret: []byte(secretKey),
	}
	if rps > 0 {
		s.limiter = newIPRateLimiter(rps, burst)
	}
	return s
}

// Router builds the HTTP handler with all routes under BasePath.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/refresh", s.refresh)
		r.Get("/verify-account/{token}/{role}/{id}", s.verifyAccount)
		r.Post("/request/password/reset", s.requestPasswordReset)
		r.Post("/reset/password", s.resetPassword)

		r.Route("/{role}", func(r chi.Router) {
			r.Post("/signup", s.signup)
			r.Post("/login", s.login)
			r.Post("/verify-otp", s.verifyOTP)
			r.Post("/resend-otp", s.resendOTP)
			r.With(s.requireAuth).Post("/logout", s.logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.me)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if s.limiter != nil {
		go s.limiter.cleanup(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting REST server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping REST server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
