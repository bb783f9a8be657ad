// Package app arma el gatekeeper: construye las dependencias una sola vez
// en un Context explícito, registra los módulos HTTP y maneja el ciclo de
// vida (init, start, shutdown).
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/blueprint/internal/config"
	httperrors "github.com/dropDatabas3/blueprint/internal/http/errors"
	mw "github.com/dropDatabas3/blueprint/internal/http/middlewares"
	"github.com/dropDatabas3/blueprint/internal/messaging"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// Module es una unidad que registra rutas sobre el router raíz.
type Module interface {
	Name() string
	Routes(r chi.Router, ac *Context)
}

// App es la aplicación armada.
type App struct {
	ac      *Context
	modules []Module
	names   map[string]struct{}

	router *chi.Mux
	server *http.Server
	ready  bool
}

// New crea la aplicación sobre un Context ya construido.
func New(ac *Context) *App {
	return &App{ac: ac, names: make(map[string]struct{})}
}

// Context expone las dependencias (seed, tests).
func (a *App) Context() *Context { return a.ac }

// Register agrega módulos en orden. Nombres repetidos se rechazan.
func (a *App) Register(mods ...Module) error {
	if a.ready {
		return errors.New("app: register after init")
	}
	for _, m := range mods {
		if _, dup := a.names[m.Name()]; dup {
			return fmt.Errorf("app: duplicate module %q", m.Name())
		}
		a.names[m.Name()] = struct{}{}
		a.modules = append(a.modules, m)
	}
	return nil
}

// Init arma el router con los middlewares globales y las rutas de cada
// módulo, y publica app.init.
func (a *App) Init(ctx context.Context) error {
	if a.ready {
		return nil
	}
	r := chi.NewRouter()
	r.Use(mw.Std(
		a.ac.Metrics.HTTP,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithSecurityHeaders(),
	)...)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrMethodNotAllowed)
	})

	for _, m := range a.modules {
		m.Routes(r, a.ac)
		logger.From(ctx).Debug("module registered", logger.Component("app"), logger.String("module", m.Name()))
	}
	a.router = r
	a.ready = true

	return a.ac.Bus.Publish(ctx, messaging.TopicAppInit, a)
}

// Handler retorna el router. Init debe haber corrido.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start escucha en la dirección configurada y publica app.start. Bloquea
// hasta que ctx se cancela o el server falla; al salir hace Shutdown.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	cfg := a.ac.Config
	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.router,
		ReadTimeout:       config.Duration(cfg.Server.ReadTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.Duration(cfg.Server.WriteTimeout),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", cfg.Server.Addr, err)
	}

	errc := make(chan error, 1)
	go func() { errc <- a.server.Serve(ln) }()

	log := logger.From(ctx).With(logger.Component("app"))
	log.Info("server listening", logger.String("addr", ln.Addr().String()))
	if err := a.ac.Bus.Publish(ctx, messaging.TopicAppStart, a); err != nil {
		log.Warn("app.start handlers failed", logger.Err(err))
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout(cfg))
	defer cancel()
	return a.Shutdown(sctx)
}

// Shutdown cierra el server (si hay) esperando requests en curso, y libera
// store y cache.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: http shutdown: %w", err))
		}
	}
	if err := a.ac.Bus.Publish(ctx, messaging.TopicAppShutdown, a); err != nil {
		errs = append(errs, err)
	}
	if err := a.ac.Close(); err != nil {
		errs = append(errs, fmt.Errorf("app: close: %w", err))
	}
	logger.From(ctx).Info("app stopped", logger.Component("app"))
	return errors.Join(errs...)
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if d := config.Duration(cfg.Server.ShutdownTimeout); d > 0 {
		return d
	}
	return 10 * time.Second
}
