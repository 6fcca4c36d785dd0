// Package server wires the development backend: SQLite storage, the user
// service and the REST server, with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jobportal/internal/common"
	"github.com/dmitrijs2005/jobportal/internal/logging"
	"github.com/dmitrijs2005/jobportal/internal/server/config"
	"github.com/dmitrijs2005/jobportal/internal/server/models"
	"github.com/dmitrijs2005/jobportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobportal/internal/server/rest"
	"github.com/dmitrijs2005/jobportal/internal/server/services"
)

// DemoPassword is the password of the seeded demo accounts.
const DemoPassword = "Demo1234"

var demoUsers = []struct {
	role models.Role
	in   services.SignupInput
}{
	{models.RoleSeeker, services.SignupInput{FirstName: "Demo", LastName: "Seeker", Email: "seeker@example.com"}},
	{models.RoleEmployer, services.SignupInput{FirstName: "Demo", LastName: "Employer", Email: "employer@example.com", CompanyName: "Demo Corp"}},
	{models.RoleAdmin, services.SignupInput{FirstName: "Demo", LastName: "Admin", Email: "admin@example.com"}},
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	server      *rest.Server
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, opts ...services.UserServiceOption) (*App, error) {
	m := repomanager.NewSQLiteRepositoryManager()
	db, err := repomanager.OpenDatabase(ctx, m, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(db, m, c, services.NewLogMailer(logger), opts...)
	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		userService: us,
		server:      rest.NewServer(c.EndpointAddr, logger, us, c.SecretKey, c.RateLimit, c.RateBurst),
	}

	if c.SeedDemoUsers {
		if err := app.seed(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return app, nil
}

func (app *App) seed(ctx context.Context) error {
	for _, d := range demoUsers {
		in := d.in
		in.Password = DemoPassword
		_, err := app.userService.SeedUser(ctx, d.role, in)
		if err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("seed %s: %w", in.Email, err)
		}
		app.logger.Info(ctx, "Demo account ready", "email", in.Email, "role", d.role)
	}
	return nil
}

// Server exposes the REST server, e.g. for serving on a test listener.
func (app *App) Server() *rest.Server {
	return app.server
}

// Run serves until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) Close() error {
	return app.db.Close()
}
