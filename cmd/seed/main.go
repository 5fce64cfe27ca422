package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"storefront-backend/internal/config"
	"storefront-backend/internal/db"
	"storefront-backend/internal/seed"
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

	if err := seed.Apply(ctx, pool); err != nil {
		log.Fatalf("seed apply: %v", err)
	}

	log.Println("seed applied")
}
