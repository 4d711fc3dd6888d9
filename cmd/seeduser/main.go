// Command seeduser creates or resets a login for local development.
//
//	go run ./cmd/seeduser -username admin -password secret -role admin
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"posengine/internal/config"
	"posengine/internal/infra"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "admin", "login name")
	password := flag.String("password", "", "plain text password (required)")
	name := flag.String("name", "Admin", "display name")
	role := flag.String("role", model.RoleAdmin, "cashier | manager | admin")
	flag.Parse()

	if *password == "" {
		log.Fatal().Msg("-password is required")
	}
	switch *role {
	case model.RoleCashier, model.RoleManager, model.RoleAdmin:
	default:
		log.Fatal().Str("role", *role).Msg("invalid role")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	err = repository.NewStore(db).Users.Upsert(context.Background(), &model.User{
		Username:     *username,
		Name:         *name,
		PasswordHash: string(hash),
		Role:         *role,
		Active:       true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to save user")
	}
	log.Info().Str("username", *username).Str("role", *role).Msg("user created/updated")
}
