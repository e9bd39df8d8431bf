package main

import (
	"context"
	"log"
	"net/http"

	"litigio/auth"
	"litigio/company"
	"litigio/config"
	"litigio/db"
	"litigio/escavador"
	"litigio/lawsuit"

	"github.com/joho/godotenv"
)

// registryAdapter exposes the Escavador registry lookup through the shape the
// auth service expects.
type registryAdapter struct {
	client *escavador.Client
}

func (a registryAdapter) FetchCompany(ctx context.Context, taxID string) (company.Profile, error) {
	fetched, err := a.client.FetchCompany(ctx, taxID)
	if err != nil {
		return company.Profile{}, err
	}
	return company.Profile{
		Name:      fetched.Name,
		LegalName: fetched.LegalName,
		Address:   fetched.Address,
		Phone:     fetched.Phone,
		Email:     fetched.Email,
	}, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	client := escavador.NewClient(cfg.Escavador.BaseURL, cfg.Escavador.Token)

	accountRepo := auth.NewRepository(pool)
	companyRepo := company.NewRepository(pool)
	lawsuitRepo := lawsuit.NewRepository(pool)

	authService := auth.NewService(accountRepo, companyRepo, registryAdapter{client: client}, cfg.Auth.JWTSecret)
	lawsuitService := lawsuit.NewService(lawsuitRepo, companyRepo, client, lawsuit.Thresholds{
		Search:     cfg.Cache.SearchTTL,
		Labor:      cfg.Cache.LaborTTL,
		Statistics: cfg.Cache.StatisticsTTL,
	})

	server := NewServer(authService, lawsuitService)

	log.Printf("listening on %s", cfg.HTTP.ListenAddr)
	if err := http.ListenAndServe(cfg.HTTP.ListenAddr, server.Routes()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
