package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"storefront-api/internal/config"
	"storefront-api/internal/db"
	"storefront-api/internal/logging"
	categoryrepo "storefront-api/internal/repository/category"
	orderrepo "storefront-api/internal/repository/order"
	productrepo "storefront-api/internal/repository/product"
	userrepo "storefront-api/internal/repository/user"
	"storefront-api/internal/seed"
)

func main() {
	adminEmail := flag.String("admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "email of the admin account to create")
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.Env, "seed")
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	stores := seed.Stores{
		Products:   productrepo.NewPostgres(pool, logger),
		Categories: categoryrepo.NewPostgres(pool, logger),
		Lookups:    orderrepo.NewPostgres(pool, logger),
		Users:      userrepo.NewPostgres(pool, logger),
	}
	if err := seed.Apply(ctx, stores, seed.Admin{Email: *adminEmail, Password: *adminPassword}, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
