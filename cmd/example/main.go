package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	translatable "github.com/goliatone/go-translatable"
	"github.com/goliatone/go-translatable/examples/posts"
)

var supportedLocales = []string{"my", "ja"}

type options struct {
	Driver         string
	DSN            string
	Locale         string
	AcceptLanguage string
	Verbose        bool
	LogLevel       string
}

func (o options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Driver, validation.Required, validation.In("sqlite", "postgres", "mysql")),
		validation.Field(&o.DSN, validation.When(o.Driver != "sqlite", validation.Required)),
		validation.Field(&o.Locale, validation.Length(2, 6)),
		validation.Field(&o.LogLevel, validation.In("trace", "debug", "info", "warn", "error", "fatal")),
	)
}

// locale honours -locale, then -accept-language, then the first supported
// locale.
func (o options) locale() string {
	if locale := strings.TrimSpace(o.Locale); locale != "" {
		return locale
	}
	return translatable.MatchLocale(supportedLocales, o.AcceptLanguage)
}

func main() {
	opts := options{}
	flag.StringVar(&opts.Driver, "driver", "sqlite", "database driver: sqlite, postgres or mysql")
	flag.StringVar(&opts.DSN, "dsn", "", "data source name (defaults to an in-memory sqlite database)")
	flag.StringVar(&opts.Locale, "locale", "", "locale to translate to")
	flag.StringVar(&opts.AcceptLanguage, "accept-language", "", "Accept-Language value used when -locale is empty")
	flag.BoolVar(&opts.Verbose, "v", false, "enable structured logging")
	flag.StringVar(&opts.LogLevel, "log-level", "debug", "log level when -v is set")
	flag.Parse()

	if err := opts.Validate(); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	ctx := context.Background()

	db, err := openDB(opts.Driver, opts.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	cfg := translatable.DefaultConfig()
	cfg.DefaultLocale = opts.locale()
	cfg.Logging.Enabled = opts.Verbose
	cfg.Logging.Level = opts.LogLevel
	cfg.Logging.Format = "console"

	registry, err := translatable.New(cfg, translatable.WithDBResolver(posts.DBResolver(db)))
	if err != nil {
		log.Fatalf("initialise registry: %v", err)
	}
	if err := posts.Declare(registry); err != nil {
		log.Fatalf("declare translatable: %v", err)
	}
	if _, err := registry.Generate(db); err != nil {
		log.Fatalf("generate translation types: %v", err)
	}
	if err := posts.Migrate(ctx, db, registry); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	if err := run(ctx, registry, db, cfg.DefaultLocale); err != nil {
		log.Fatalf("run scenarios: %v", err)
	}
}

func run(ctx context.Context, r *translatable.Registry, db *bun.DB, locale string) error {
	if _, err := posts.CreatePosts(ctx, db); err != nil {
		return err
	}
	if _, err := posts.CreatePostsWithDeclarations(ctx, r, db); err != nil {
		return err
	}

	result := map[string]any{"locale": locale}

	var err error
	if result["posts"], err = posts.GetPosts(ctx, r, db, locale); err != nil {
		return fmt.Errorf("get posts: %w", err)
	}
	if result["posts_with_repository"], err = posts.GetPostsWithRepository(ctx, r, db, locale); err != nil {
		return fmt.Errorf("get posts with repository: %w", err)
	}
	if result["posts_with_declarations"], err = posts.GetPostsWithDeclarations(ctx, r, db, locale); err != nil {
		return fmt.Errorf("get posts with declarations: %w", err)
	}
	if result["posts_with_declarations_repository"], err = posts.GetPostsWithDeclarationsWithRepository(ctx, r, db, locale); err != nil {
		return fmt.Errorf("get posts with declarations repository: %w", err)
	}
	if result["transaction"], err = posts.CreateAndGetInTransaction(ctx, r, db); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func openDB(driver, dsn string) (*bun.DB, error) {
	var (
		driverName string
		dialect    schema.Dialect
	)
	switch driver {
	case "postgres":
		driverName, dialect = "pgx", pgdialect.New()
	case "mysql":
		driverName, dialect = "mysql", mysqldialect.New()
	default:
		driverName, dialect = "sqlite3", sqlitedialect.New()
		if dsn == "" {
			dsn = "file::memory:?cache=shared&_fk=1"
		}
	}

	sqldb, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		sqldb.SetMaxOpenConns(1)
	}
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return bun.NewDB(sqldb, dialect), nil
}
