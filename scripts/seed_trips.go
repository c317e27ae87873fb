package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tripseat/internal/api"
	"tripseat/internal/config"
	"tripseat/internal/database"
	"tripseat/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type SeedFile struct {
	Users []models.User `yaml:"users"`
	Trips []models.Trip `yaml:"trips"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/trips.yaml", "path to trips.yaml")
		dbPath   = flag.String("db", "./data/tripseat.db", "path to sqlite db")
		secret   = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "print a bearer token per user when set")
		issuer   = flag.String("jwt-issuer", "tripseat", "issuer for printed tokens")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed SeedFile
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(seed.Trips) == 0 && len(seed.Users) == 0 {
		return fmt.Errorf("nothing to seed in %s", *seedPath)
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := range seed.Users {
		u := &seed.Users[i]
		if u.Username == "" {
			continue
		}
		if err = db.CreateOrUpdateUser(ctx, u); err != nil {
			return fmt.Errorf("user %s: %w", u.Username, err)
		}
		fmt.Printf("user %s id=%d manager=%t\n", u.Username, u.ID, u.IsManager)
		if *secret != "" {
			token, err := api.IssueToken(config.APIAuthConfig{JWTSecret: *secret, Issuer: *issuer}, u.ID, 30*24*time.Hour)
			if err != nil {
				return fmt.Errorf("token for %s: %w", u.Username, err)
			}
			fmt.Printf("  token: %s\n", token)
		}
	}

	for i := range seed.Trips {
		t := &seed.Trips[i]
		if t.TotalSeats < 1 {
			return fmt.Errorf("trip %s -> %s: total_seats must be positive", t.Origin, t.Destination)
		}
		if err = db.UpsertTrip(ctx, t); err != nil {
			return fmt.Errorf("trip %s -> %s: %w", t.Origin, t.Destination, err)
		}
	}

	fmt.Printf("done: users=%d trips=%d\n", len(seed.Users), len(seed.Trips))
	return nil
}
