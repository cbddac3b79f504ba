package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suteetoe/erp/internal/attendance"
	"github.com/suteetoe/erp/internal/auth"
	"github.com/suteetoe/erp/internal/gateway"
	"github.com/suteetoe/erp/internal/handler"
	"github.com/suteetoe/erp/internal/odoosync"
	"github.com/suteetoe/erp/internal/payment"
	"github.com/suteetoe/erp/internal/server"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/pkg/config"
	"github.com/suteetoe/erp/pkg/database"
	"github.com/suteetoe/erp/pkg/jwtutil"
	"github.com/suteetoe/erp/pkg/logger"
	"github.com/suteetoe/erp/pkg/mailer"
	"go.uber.org/zap"
)

const serviceName = "erp-service"

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.InitLogger(cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	log.Info("Starting service...", cfg.LogConfig()...)

	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	mail := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, log)
	resolver := tenant.NewResolver(db)

	h := &handler.Handler{
		ServiceName:   serviceName,
		MetricsPrefix: cfg.Metrics.Prefix,
		DB:            db,
		Resolver:      resolver,
		Auth:          auth.NewService(db, jwt, mail, cfg.Auth, log),
		Payments:      payment.NewService(db, resolver, log),
		Attendance:    attendance.NewService(db, cfg.Location(), log),
		Gateway:       gateway.New(db),
		Odoo:          odoosync.NewService(db, cfg.Odoo.Timeout, log),
	}
	e := server.New(h, jwt, resolver)

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
