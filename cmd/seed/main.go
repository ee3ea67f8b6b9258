// Command seed loads the product and location catalog into Postgres.
//
//	seed -file seeds/catalog.yaml
//	seed -hash-passphrase 'borrar todo'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/config"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/database"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/repository"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/services"
)

var (
	file       = flag.String("file", "seeds/catalog.yaml", "Catalog YAML to load")
	dryRun     = flag.Bool("dry-run", false, "Parse and validate only; no DB writes")
	hashPhrase = flag.String("hash-passphrase", "", "Print the PURGE_PASSPHRASE_HASH for a passphrase and exit")
)

func main() {
	config.LoadDotEnv(".env.local", ".env")
	flag.Parse()

	if *hashPhrase != "" {
		hash, err := services.HashPassphrase(*hashPhrase)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(hash)
		return
	}

	cat, err := loadCatalog(*file)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Loaded %d locations and %d products from %s\n", len(cat.Locations), len(cat.Products), *file)
	if *dryRun {
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, cfg.Database.DSN(), log); err != nil {
		log.Fatal("Failed to run migrations", err, nil)
	}

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	locations := repository.NewLocationRepository(db)
	for i := range cat.Locations {
		if err := locations.Upsert(ctx, &cat.Locations[i]); err != nil {
			log.Fatal("Failed to seed location", err, map[string]interface{}{"city": cat.Locations[i].City})
		}
	}

	products := repository.NewProductRepository(db)
	for i := range cat.Products {
		if err := products.Upsert(ctx, &cat.Products[i]); err != nil {
			log.Fatal("Failed to seed product", err, map[string]interface{}{
				"catalog_id": cat.Products[i].CatalogID,
				"city":       cat.Products[i].City,
			})
		}
	}

	log.Info("Catalog seeded", map[string]interface{}{
		"locations": len(cat.Locations),
		"products":  len(cat.Products),
	})
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
