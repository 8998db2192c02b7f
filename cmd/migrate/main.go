package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"payment-gateway/internal/config"
	"payment-gateway/internal/database/migrations"
	"payment-gateway/internal/logger"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// migrate applies or rolls back the payments schema.
//
//	go run ./cmd/migrate [-dir ./migrations] up|down|version
func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Parse()

	log := logger.NewLoggerWithWriter(os.Stdout)
	_ = godotenv.Load()
	cfg := config.Load()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	migrationsDir := cfg.Migrations.Dir
	if *dir != "" {
		migrationsDir = *dir
	}

	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.PostgresURL()))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(context.Background()); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: migrationsDir}, log)
	defer runner.Close()

	var err error
	switch command {
	case "up":
		err = runner.RunMigrations()
	case "down":
		err = runner.MigrateDown()
	case "version":
		var (
			version   uint
			dirty, ok bool
		)
		version, dirty, ok, err = runner.Version()
		if err == nil {
			if !ok {
				log.Info("MIGRATE", "No migrations applied")
			} else {
				log.Info("MIGRATE", fmt.Sprintf("Schema version %d (dirty=%t)", version, dirty))
			}
		}
	default:
		err = fmt.Errorf("unknown command %q, expected up, down or version", command)
	}

	if err != nil {
		log.Error("MIGRATE", err.Error())
		runner.Close()
		os.Exit(1)
	}
	log.Info("MIGRATE", fmt.Sprintf("%s completed", command))
}
