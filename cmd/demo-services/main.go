package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authdemo/console/internal/config"
	"github.com/authdemo/console/internal/logging"
	"github.com/authdemo/console/internal/services"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	service := flag.String("service", "", "Service to run: auth, app1 or app2")
	port := flag.String("port", "", "Override the listen port")
	flag.Parse()

	cfg, err := config.LoadServices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}
	listen := cfg.ListenPort(*service)
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	srv, err := build(*service, cfg, logger)
	if err != nil {
		logger.Error("failed to build service", "service", *service, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("service starting", "service", srv.Name(), "port", listen)
		errCh <- srv.Start(":" + listen)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "service", srv.Name(), "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down", "service", srv.Name())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "service", srv.Name(), "error", err)
		}
	}
}

func build(name string, cfg *config.Services, logger *slog.Logger) (*services.Server, error) {
	switch name {
	case "app2":
		return services.NewApp2(cfg.Origins(), logger), nil
	case "auth", "app1":
	default:
		return nil, fmt.Errorf("unknown service %q", name)
	}

	tokens, err := services.NewTokens(cfg.SecretKey, cfg.Algorithm, cfg.TokenTTL(), nil)
	if err != nil {
		return nil, err
	}
	if name == "app1" {
		upstream := services.NewUpstream("app2", cfg.App2URL, cfg.ProxyTimeout, logger)
		return services.NewApp1(tokens, upstream, cfg.Origins(), logger), nil
	}

	users, err := services.NewUsers(services.DemoUsers, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return services.NewAuth(users, tokens, cfg.Origins(), logger), nil
}
