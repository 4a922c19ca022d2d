package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nekogravitycat/parking-booking-backend/internal/app"
	"github.com/nekogravitycat/parking-booking-backend/internal/auth"
	"github.com/nekogravitycat/parking-booking-backend/internal/config"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/parking-booking-backend/internal/resource"
	"github.com/nekogravitycat/parking-booking-backend/internal/user"
)

const usage = `usage: migrate <command> [flags]

commands:
  up                apply all pending migrations
  down -steps N     roll back N migrations (postgres only)
  seed              create parking spots spot0..spot9 plus an admin and a user
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	logger.Set(logger.NewLogger(cfg.AppEnv))
	defer logger.Sync()

	database, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	switch cmd := os.Args[1]; cmd {
	case "up":
		if err := database.MigrateUp(); err != nil {
			logger.Fatal("migrate up failed", zap.Error(err))
		}
		logger.Info("migrations applied")

	case "down":
		fs := flag.NewFlagSet("down", flag.ExitOnError)
		steps := fs.Int("steps", 1, "number of migrations to roll back")
		_ = fs.Parse(os.Args[2:])
		if *steps < 1 {
			logger.Fatal("steps must be positive", zap.Int("steps", *steps))
		}
		if err := database.MigrateDown(*steps); err != nil {
			logger.Fatal("migrate down failed", zap.Error(err))
		}
		logger.Info("migrations rolled back", zap.Int("steps", *steps))

	case "seed":
		if err := database.MigrateUp(); err != nil {
			logger.Fatal("migrate up failed", zap.Error(err))
		}
		container := app.NewContainer(app.Config{
			DBPool:     database.Pool,
			SQLite:     database.SQLite,
			JWTSecret:  cfg.JWTSecret,
			JWTTTL:     cfg.JWTAccessTokenTTL,
			BcryptCost: cfg.BcryptCost,
		})
		if err := seed(ctx, container.Resources, container.Users); err != nil {
			logger.Fatal("seed failed", zap.Error(err))
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

type seedUser struct {
	email     string
	firstName string
	lastName  string
	role      string
}

var seedUsers = []seedUser{
	{email: "admin@example.com", firstName: "Parking", lastName: "Admin", role: auth.RoleAdmin},
	{email: "driver@example.com", firstName: "Daily", lastName: "Driver", role: auth.RoleUser},
}

// seed is idempotent: existing spots and users are left alone.
func seed(ctx context.Context, resources resource.Service, users user.Service) error {
	for i := 0; i < 10; i++ {
		res, err := resources.EnsureByName(ctx, fmt.Sprintf("spot%d", i))
		if err != nil {
			return fmt.Errorf("seed spot%d: %w", i, err)
		}
		logger.Info("parking spot ready", zap.String("id", res.ID), zap.String("name", res.Name))
	}

	for _, su := range seedUsers {
		if _, err := users.GetByEmail(ctx, su.email); err == nil {
			logger.Info("user already exists, skipping", zap.String("email", su.email))
			continue
		} else if !errors.Is(err, user.ErrNotFound) {
			return fmt.Errorf("look up %s: %w", su.email, err)
		}

		u, key, err := users.Create(ctx, user.CreateRequest{
			Email:     su.email,
			FirstName: su.firstName,
			LastName:  su.lastName,
			Role:      su.role,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", su.email, err)
		}
		// The key is shown once; only its hash is stored.
		fmt.Printf("%s\t%s\t%s\n", u.Email, u.Role, key.String())
	}
	return nil
}
