package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tuanvumaihuynh/nfcstore/internal/app"
	"github.com/tuanvumaihuynh/nfcstore/internal/config"
	"github.com/tuanvumaihuynh/nfcstore/internal/http/apierr"
	"github.com/tuanvumaihuynh/nfcstore/internal/log"
	"github.com/tuanvumaihuynh/nfcstore/internal/service"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running createstaff application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	email := flag.String("email", "", "staff email (required)")
	password := flag.String("password", "", "staff password, falls back to STAFF_PASSWORD")
	name := flag.String("name", "", "display name")
	superuser := flag.Bool("superuser", false, "grant superuser rights")
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("STAFF_PASSWORD")
	}
	if *email == "" || *password == "" {
		flag.Usage()
		return errors.New("email and password are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		Auth     config.Auth
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	authSvc, err := app.NewAuthService(cfg.Auth, db.NewClient(pgxPool))
	if err != nil {
		return fmt.Errorf("error creating auth service: %w", err)
	}

	user, err := authSvc.CreateStaff(ctx, service.CreateStaffParams{
		Email:     *email,
		Password:  *password,
		Name:      *name,
		Superuser: *superuser,
	})
	if err != nil {
		if res := apierr.New(err); res.StatusCode < 500 {
			for _, d := range res.Details {
				fmt.Printf("  %s: %s\n", d.Field, d.Message)
			}
			return errors.New(res.Error)
		}
		return fmt.Errorf("error creating staff user: %w", err)
	}

	logger.InfoContext(ctx, "staff user created",
		slog.String("user_id", user.ID.String()),
		slog.String("email", user.Email),
		slog.Bool("superuser", user.IsSuperuser),
	)

	return nil
}
