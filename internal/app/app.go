// Package app provides the main application structure and lifecycle management.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/branchout/go-branch-audio/internal/branch"
)

// Application represents the main application with its lifecycle.
type Application struct {
	app *fx.App
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	options := append(modules, fx.Invoke(registerLifecycleHooks))

	return &Application{
		app: fx.New(options...),
	}
}

// Run starts the application and blocks until it's stopped.
func (a *Application) Run() {
	a.app.Run()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// registerLifecycleHooks ties the branch manager to the application
// lifecycle: every branch output is torn down before the process
// exits, finalizing record files on the way out.
func registerLifecycleHooks(lc fx.Lifecycle, m *branch.Manager, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("branch audio engine ready")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down branch outputs")
			m.Shutdown()
			return nil
		},
	})
}
