// File: cmd/seed/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4"

	"planvault/internal/config"
	"planvault/internal/domain"
	"planvault/internal/domain/model"
	"planvault/internal/domain/ports/repository"
	pg "planvault/internal/infra/db/postgres"
)

// Seeds the registry settings so a fresh deployment answers API calls without
// a manual initialize step. Safe to re-run: existing settings are left alone.
func main() {
	var configPath string
	var dev bool
	var admin string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.StringVar(&admin, "admin", "admin", "admin principal for both registries")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath, dev)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	settings := pg.NewSettingsRepo(pool)
	tm := pg.NewTxManager(pool)
	now := time.Now().UTC().Truncate(time.Second)

	for _, component := range []string{model.ComponentEscrow, model.ComponentVouchers} {
		existing, err := settings.Find(ctx, nil, component)
		switch {
		case err == nil:
			fmt.Printf("%s already initialized (admin=%s). No changes.\n", component, existing.Admin)
			continue
		case !errors.Is(err, domain.ErrNotFound):
			log.Fatalf("find %s settings: %v", component, err)
		}

		err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return settings.Create(ctx, tx, &model.RegistrySettings{
				Component:     component,
				Admin:         admin,
				InitializedAt: now,
			})
		})
		if err != nil {
			log.Fatalf("initialize %s: %v", component, err)
		}
		fmt.Printf("seeded: %s (admin=%s)\n", component, admin)
	}

	fmt.Println("Seeding complete.")
}
