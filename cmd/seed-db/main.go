// Command seed-db loads the product catalog and optionally mints a bearer
// token for a development user.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/db"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/handler"
	"github.com/xenking/kart-storefront/internal/storage/postgres"
	"github.com/xenking/kart-storefront/internal/wire"
)

func main() {
	var (
		databaseURL  string
		productsFile string
		authSecret   string
		user         string
		tokenTTL     time.Duration
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (default: built-in catalog)")
	flag.StringVar(&authSecret, "auth-secret", "", "HS256 secret for minting a token (or KART_AUTH_SECRET env)")
	flag.StringVar(&user, "user", "", "mint a bearer token for this user id and print it")
	flag.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the minted token")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}
	if authSecret == "" {
		authSecret = os.Getenv("KART_AUTH_SECRET")
	}
	if user != "" && authSecret == "" {
		lg.Fatal("auth secret is required to mint a token: set --auth-secret or KART_AUTH_SECRET")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, productsFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")

	if user != "" {
		tok, err := handler.NewAuthenticator([]byte(authSecret)).Issue(user, tokenTTL, time.Now())
		if err != nil {
			lg.Fatal("Mint token", zap.Error(err))
		}
		fmt.Println(tok)
	}
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, productsFile string) error {
	lg.Info("Connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products, err := loadProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "load products")
	}

	lg.Info("Upserting products", zap.Int("count", len(products)))
	if err := postgres.NewProductRepository(pool).Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	return nil
}

func loadProducts(path string) ([]product.Product, error) {
	data := db.SeedProducts
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read products file")
		}
		data = b
	}

	var products []product.Product
	err := wire.Decode(data, func(d *jx.Decoder) (err error) {
		products, err = wire.DecodeProducts(d)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	for _, p := range products {
		if p.ID == "" || p.Price.IsNegative() || p.Stock < 0 {
			return nil, errors.Errorf("invalid product %q", p.ID)
		}
	}
	return products, nil
}
