package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/Richwell111/auth2/internal/adapters/api"
	"github.com/Richwell111/auth2/internal/adapters/authclient"
	"github.com/Richwell111/auth2/internal/adapters/botdetect"
	"github.com/Richwell111/auth2/internal/adapters/emailcheck"
	"github.com/Richwell111/auth2/internal/adapters/repository"
	"github.com/Richwell111/auth2/internal/adapters/rulestate"
	"github.com/Richwell111/auth2/internal/core/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	cfg, err := loadConfig(osGetenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.InternalToken == "" {
		log.Fatal("INTERNAL_API_TOKEN must be set")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Printf("Warning: Could not ping database: %v\n", err)
	}

	ruleStore := rulestate.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	memberships := repository.NewPostgresRepository(db)

	upstream, err := authclient.New(cfg.UpstreamURL, logger)
	if err != nil {
		log.Fatalf("Invalid upstream URL: %v", err)
	}

	emails := emailcheck.New(nil, cfg.ExtraDisposables, logger)
	bots := botdetect.New()

	admission := services.NewAdmissionService(ruleStore, emails, cfg.Admission, logger)
	tenants := services.NewTenantContextService(memberships, logger)
	subscriptions := services.NewSubscriptionAuthorizer(memberships, cfg.MutatorRoles, logger)

	gateway := api.NewGateway(admission, upstream, upstream, bots, logger)
	handler := api.NewAPIHandler(gateway, tenants, subscriptions, map[string]api.HealthCheck{
		"rule_store":  ruleStore.Ping,
		"memberships": memberships.Ping,
		"upstream":    upstream.Ping,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, cfg.InternalToken)

	logger.Info("auth gateway listening", "addr", cfg.ListenAddr, "upstream", cfg.UpstreamURL)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("HTTP Server failed: %v", err)
	}
}
