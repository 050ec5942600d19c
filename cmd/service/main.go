package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gitlab.com/dirk.krummacker/contacts-api/internal/auth"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Usage example on the command line:
// > PORT=8080 DBUSER=dirk DBPWD=bullo92 JWT_SECRET=geheim GIN_MODE=release GIN_LOGGING=OFF go run main.go
// > STORE_DRIVER=sqlite DATABASE_URL=contacts.db AUTH_DISABLED=true go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger, err := service.NewLogger(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := service.CreateStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("could not open store")
	}
	defer s.Close()

	authenticate := auth.Middleware(auth.NewVerifier(cfg.JWTSecret))
	if cfg.AuthDisabled {
		logger.Warn("Authentication is disabled, all contacts are shared.")
		authenticate = auth.Anonymous()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := service.SetupHttpRouter(s, service.Options{
		Authenticate:   authenticate,
		Logger:         logger,
		RequestLogging: cfg.RequestLogging(),
		PageSize:       cfg.PageSize,
		Registry:       registry,
	})
	run(ctx, logger, router, cfg.Port)
}

// run serves HTTP requests until the context is canceled, then waits for running requests.
func run(ctx context.Context, logger *logrus.Logger, router *gin.Engine, port int) {
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("addr", server.Addr).Info("contacts service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
