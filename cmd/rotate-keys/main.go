package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/marginly/marginly-backend/internal/stores"
	"github.com/marginly/marginly-backend/pkg/config"
	"github.com/marginly/marginly-backend/pkg/db"
	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/security"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "rotate-keys"})

	_ = godotenv.Load()

	oldKey := flag.String("old-key", "", "previous encryption key as 64 hex chars (defaults to MARGINLY_OLD_ENCRYPTION_KEY)")
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "rotate-keys",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	current, err := security.NewCipherFromHex(cfg.Security.EncryptionKey)
	requireResource(ctx, logg, "current key", err)

	var previous *security.Cipher
	if raw := firstNonEmpty(*oldKey, cfg.Security.OldEncryptionKey); raw != "" {
		previous, err = security.NewCipherFromHex(raw)
		requireResource(ctx, logg, "old key", err)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	rotator, err := stores.NewRotator(stores.NewRepository(dbClient.DB()), current, previous, logg)
	requireResource(ctx, logg, "rotator", err)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"dry_run": *dryRun,
	})
	logg.Info(ctx, "rotating store credentials")

	report, err := rotator.Rotate(ctx, *dryRun)
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	if err != nil {
		logg.Error(ctx, "rotation aborted", err)
		os.Exit(1)
	}
	if report.Failed > 0 {
		os.Exit(2)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
