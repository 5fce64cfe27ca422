package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"storefront-backend/internal/config"
	"storefront-backend/internal/db"
	"storefront-backend/internal/migrate"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	log.Println("migrations applied")
}
