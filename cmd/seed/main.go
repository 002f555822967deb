// Command seed loads the default document checklist and demo registration
// requests into Postgres, then prints a bearer token for local use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"regportal/internal/auth"
	"regportal/internal/config"
	"regportal/internal/database"
	"regportal/internal/database/migration"
	"regportal/internal/logging"
	"regportal/internal/model"
	"regportal/internal/repository/postgres"
	"regportal/internal/seed"
)

func main() {
	actorID := flag.String("actor", "dev-reviewer", "actor id embedded in the printed token")
	companyID := flag.String("company", "", "company scope of the printed token; empty sees every company")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed token")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.Location(), logging.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database failed", "component", "seed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		logger.Error("migration failed", "component", "seed", "error", err.Error())
		os.Exit(1)
	}

	err = seed.Run(ctx,
		postgres.NewRequiredDocumentPostgres(db),
		postgres.NewRegistrationPostgres(db),
		logger,
		time.Now().UTC(),
	)
	if err != nil {
		logger.Error("seed failed", "component", "seed", "error", err.Error())
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is empty, no token printed", "component", "seed")
		return
	}
	token, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).
		Issue(model.Actor{ID: *actorID, CompanyID: *companyID}, *tokenTTL)
	if err != nil {
		logger.Error("issue token failed", "component", "seed", "error", err.Error())
		os.Exit(1)
	}
	fmt.Println(token)
}
