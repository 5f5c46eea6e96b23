package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/authorkit/simple-structure/pkg/simplestructure/api"
	"github.com/authorkit/simple-structure/pkg/simplestructure/config"
)

type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	DB          DbConfig
}

type DbConfig struct {
	URL      string `env:"DATABASE_URL" env-default:""`
	Port     uint16 `env:"STRUCTURE_PG_PORT" env-default:"5432"`
	Host     string `env:"STRUCTURE_PG_HOST" env-default:""`
	Name     string `env:"STRUCTURE_PG_NAME" env-default:"structure_db"`
	User     string `env:"STRUCTURE_PG_USER" env-default:"structure"`
	Password string `env:"STRUCTURE_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"DB_SCHEMA" env-default:"structure"`
}

// databaseURL returns DATABASE_URL when set, otherwise builds a URL from the
// individual STRUCTURE_PG_* parts. An empty host means no database at all and
// the server falls back to the in-memory repository.
func (c DbConfig) databaseURL() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	return u.String()
}

func main() {
	var envCfg Config
	if err := cleanenv.ReadEnv(&envCfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(func(c *config.ServerConfig) error {
		c.Port = envCfg.Port
		c.Environment = envCfg.Environment
		c.DBSchema = envCfg.DB.Schema
		if dbURL := envCfg.DB.databaseURL(); dbURL != "" {
			c.DatabaseType = "postgres"
			c.DatabaseURL = dbURL
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	if cfg.DatabaseType == "postgres" {
		if err := config.PingPostgres(cfg.DatabaseURL, cfg.DBSchema); err != nil {
			slog.Error("Failed to connect to database", "err", err)
			os.Exit(1)
		}
	}

	svc, err := cfg.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{
			"status":   "ok",
			"database": cfg.DatabaseType,
		})
	})

	handler := api.NewStructureHandler(svc)
	r.Mount("/api/v1", handler.Routes())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		slog.Info("Simple Structure Server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}
