package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-record/pkg/catalog"
	"github.com/ekaya-inc/ekaya-record/pkg/config"
	"github.com/ekaya-inc/ekaya-record/pkg/database"
	"github.com/ekaya-inc/ekaya-record/pkg/entities"
	"github.com/ekaya-inc/ekaya-record/pkg/logging"
	"github.com/ekaya-inc/ekaya-record/pkg/scaffold"
	sqlutil "github.com/ekaya-inc/ekaya-record/pkg/sql"

	_ "github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource/mssql"    // Registers with -tags mssql or all_adapters
	_ "github.com/ekaya-inc/ekaya-record/pkg/adapters/datasource/postgres" // Register postgres adapter
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup completes before main exits.
func run(args []string) int {
	flags := flag.NewFlagSet("ekaya-record", flag.ContinueOnError)
	mode := flags.String("mode", "describe", "describe | scaffold | demo")
	configPath := flags.String("config", config.DefaultConfigPath, "YAML config file (optional; env vars override)")
	table := flags.String("table", "", "table to describe or scaffold")
	pkgName := flags.String("package", "entities", "package name for scaffolded code")
	migrate := flags.Bool("migrate", true, "apply migrations before running")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadFrom(*configPath, Version)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if *table != "" {
		if err := sqlutil.ValidateIdentifier(*table); err != nil {
			logger.Error("Invalid -table", zap.Error(err))
			return 2
		}
	}

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("db_type", cfg.Database.Type),
		zap.String("db_host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.Database),
		zap.Bool("redis", cfg.Redis.Enabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := database.Instance(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
		return 1
	}
	defer conn.Close()

	if *migrate {
		if err := database.RunMigrations(conn, cfg.MigrationsPath, logger); err != nil {
			logger.Error("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
			return 1
		}
	}

	schemaIntrospector := catalog.NewIntrospector(conn, logger)
	var introspector catalog.Introspector = schemaIntrospector
	if cfg.Catalog.CacheTTLSeconds > 0 {
		redisClient, err := database.NewRedisClient(ctx, &cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, caching columns in memory only",
				zap.String("error", logging.SanitizeError(err)))
		}
		if redisClient != nil {
			defer redisClient.Close()
		}
		introspector = catalog.NewCache(schemaIntrospector, redisClient, cfg.Catalog.TTL(), logger)
	}

	switch *mode {
	case "describe":
		err = runDescribe(ctx, conn, schemaIntrospector, introspector, *table)
	case "scaffold":
		err = runScaffold(ctx, conn, introspector, *table, *pkgName)
	case "demo":
		err = runDemo(ctx, conn, introspector, logger)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("Command failed", zap.String("mode", *mode), zap.String("error", logging.SanitizeError(err)))
		return 1
	}
	return 0
}

func runDescribe(ctx context.Context, conn *database.Connection, lister catalog.TableLister, introspector catalog.Introspector, table string) error {
	var tables []string
	if table != "" {
		tables = []string{table}
	}

	described, err := catalog.Describe(ctx, lister, introspector, conn.Schema(), tables...)
	if err != nil {
		return err
	}

	desc := &catalog.SchemaDescription{
		Database: conn.Database(),
		Schema:   conn.Schema(),
		Dialect:  conn.Dialect().Name(),
		Tables:   described,
	}
	return desc.WriteYAML(os.Stdout)
}

func runScaffold(ctx context.Context, conn *database.Connection, introspector catalog.Introspector, table, pkgName string) error {
	if table == "" {
		return fmt.Errorf("-table is required for scaffold")
	}

	columns, err := introspector.Columns(ctx, conn.Schema(), table)
	if err != nil {
		return err
	}
	return scaffold.Generate(os.Stdout, scaffold.Options{Package: pkgName, Table: table}, columns)
}

func runDemo(ctx context.Context, conn *database.Connection, introspector catalog.Introspector, logger *zap.Logger) error {
	users := entities.NewUserRepository(conn, introspector, logger)

	email := fmt.Sprintf("demo+%d@example.com", time.Now().UnixNano())
	created, err := users.Create(ctx, map[string]any{"name": "Demo User", "email": email})
	if err != nil {
		return err
	}
	logger.Info("Created user", zap.Int64("id", created.ID), zap.String("email", created.Email))

	all, err := users.All(ctx)
	if err != nil {
		return err
	}
	for _, entry := range all.All() {
		logger.Info("User",
			zap.Int("key", entry.Key),
			zap.Int64("id", entry.Item.ID),
			zap.String("name", entry.Item.Name),
			zap.Time("created_at", entry.Item.CreatedAt),
		)
	}
	return nil
}
