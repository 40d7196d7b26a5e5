package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/medbot/chat"
	"github.com/giygas/medbot/config"
	"github.com/giygas/medbot/handlers"
	"github.com/giygas/medbot/health"
	"github.com/giygas/medbot/logging"
	"github.com/giygas/medbot/scheduler"
	"github.com/giygas/medbot/server"
	"github.com/giygas/medbot/symptoms"
	"github.com/giygas/medbot/validation"
)

func main() {
	verbose := flag.Bool("v", false, "log debug output to the console")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logs := logging.InitLogger(logging.Options{
		LogDir:         cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		Verbose:        *verbose,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logs.Close()

	logging.Info("Configuration loaded", "env", cfg.Env.String(), "address", cfg.Address, "port", cfg.Port)

	startTime := time.Now()
	advisor := symptoms.Default()
	validator := validation.NewDataValidator(cfg.MaxMessageLength)

	chats := chat.NewStore(handlers.ChatResponder(advisor), chat.Options{
		ReplyDelay:  cfg.ReplyDelay,
		MaxSessions: cfg.MaxSessions,
		MaxMessages: cfg.MaxMessagesPerSession,
	})

	sched := scheduler.NewScheduler(advisor, validator, chats, cfg.SessionTTL, cfg.SessionSweepInterval)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	healthChecker := health.NewHealthChecker(advisor, validator, chats, startTime)
	httpHandler := handlers.NewHTTPHandler(advisor, chats, validator, healthChecker)
	srv := server.NewServer(cfg, httpHandler, chats)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		logging.Error("Server failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
}
