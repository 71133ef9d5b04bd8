package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forgesite/auth-service/internal/audit"
	"github.com/forgesite/auth-service/internal/config"
	"github.com/forgesite/auth-service/internal/events"
	"github.com/forgesite/auth-service/internal/httpserver"
	"github.com/forgesite/auth-service/internal/middleware"
	"github.com/forgesite/auth-service/internal/repo"
	"github.com/forgesite/auth-service/internal/service"
	"github.com/forgesite/auth-service/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.OpenDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	var trail *audit.Trail
	if cfg.ESURL != "" {
		esClient, err := audit.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		trail = audit.New(esClient, cfg.ESAuditIndex)
	}

	gormRepo := repo.GormRepo{DB: db}

	sessionSvc := &service.SessionService{
		Repo:          gormRepo,
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Events:        producer,
		Audit:         trail,
	}
	resetSvc := &service.ResetService{
		Repo:     gormRepo,
		ResetTTL: cfg.ResetTTL,
		Events:   producer,
		Audit:    trail,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: sessionSvc},
		ResetHandler: &httpserver.ResetHTTP{Svc: resetSvc, DevMode: cfg.DevMode},
		AccessSecret: cfg.AccessSecret,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
