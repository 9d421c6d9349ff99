package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"portfolio-backend/internal/database"
	"portfolio-backend/internal/kvstore"
	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/services"
)

// CLI is the operator tool for the portfolio backend.
type CLI struct {
	HashPassword HashPasswordCmd `cmd:"" name:"hash-password" help:"Print a bcrypt hash for ADMIN_PASSWORD_HASH."`
	Migrate      MigrateCmd      `cmd:"" help:"Apply pending database migrations."`
	Seed         SeedCmd         `cmd:"" help:"Insert the default projects when none exist."`
	Quota        QuotaCmd        `cmd:"" help:"Inspect or reset chat quotas."`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"warn" env:"LOG_LEVEL"`
}

// DBFlags locate the PostgreSQL database.
type DBFlags struct {
	DatabaseURL string `name:"database-url" help:"PostgreSQL connection string." env:"DATABASE_URL" required:""`
}

func (f DBFlags) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return database.NewPostgresPool(ctx, f.DatabaseURL)
}

// HashPasswordCmd reads the password from the argument or, when absent, from stdin.
type HashPasswordCmd struct {
	Password string `arg:"" optional:"" help:"Password to hash (read from stdin when omitted)."`
}

func (c *HashPasswordCmd) Run(stdin io.Reader, stdout io.Writer) error {
	password := c.Password
	if password == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := services.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

type MigrateCmd struct {
	DBFlags `embed:""`
	Dir string `help:"Migrations directory." default:"migrations" env:"MIGRATIONS_DIR" type:"path"`
}

func (c *MigrateCmd) Run(ctx context.Context, stdout io.Writer) error {
	pool, err := c.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := database.RunMigrations(ctx, pool, c.Dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✓ %d migration(s) applied\n", applied)
	return nil
}

type SeedCmd struct {
	DBFlags `embed:""`
}

func (c *SeedCmd) Run(ctx context.Context, stdout io.Writer) error {
	pool, err := c.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	res, err := services.NewProjectService(repository.NewProjectRepo(pool), nil).InitDefaults(ctx)
	if err != nil {
		return err
	}
	if res.Inserted {
		fmt.Fprintf(stdout, "✓ Default projects initialized (%d)\n", res.Count)
	} else {
		fmt.Fprintf(stdout, "Projects already exist (%d)\n", res.Count)
	}
	return nil
}

type QuotaCmd struct {
	Show  QuotaShowCmd  `cmd:"" help:"Show the question count for a client."`
	Reset QuotaResetCmd `cmd:"" help:"Reset the question count for a client."`
}

// QuotaFlags select a client bucket and the counter store holding it.
type QuotaFlags struct {
	Identity string `arg:"" help:"Client identity (usually the first X-Forwarded-For address)."`
	Date     string `help:"UTC date (YYYY-MM-DD), defaults to today." placeholder:"DATE"`

	KVBackend    string `name:"kv-backend" help:"Counter store backend (redis, postgres)." default:"redis" env:"KV_BACKEND" enum:"redis,postgres"`
	RedisURL     string `name:"redis-url" help:"Redis URL." env:"REDIS_URL"`
	DatabaseURL  string `name:"database-url" help:"PostgreSQL connection string." env:"DATABASE_URL"`
	MaxQuestions int    `name:"max-questions" help:"Daily question limit." default:"10" env:"CHAT_MAX_QUESTIONS"`
}

func (f *QuotaFlags) date() string {
	if f.Date != "" {
		return f.Date
	}
	return time.Now().UTC().Format("2006-01-02")
}

// limiter opens the configured counter store. The returned func releases it.
func (f *QuotaFlags) limiter(ctx context.Context) (*services.QuotaLimiter, func(), error) {
	switch f.KVBackend {
	case "postgres":
		if f.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("--database-url is required for the postgres backend")
		}
		pool, err := database.NewPostgresPool(ctx, f.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return services.NewQuotaLimiter(kvstore.NewPostgresStore(pool), f.MaxQuestions), pool.Close, nil
	default:
		if f.RedisURL == "" {
			return nil, nil, fmt.Errorf("--redis-url is required for the redis backend")
		}
		clients, err := database.NewRedisClients(ctx, f.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return services.NewQuotaLimiter(kvstore.NewRedisStore(clients.Queue, services.QuotaKeyTTL), f.MaxQuestions), clients.Close, nil
	}
}

type QuotaShowCmd struct {
	QuotaFlags `embed:""`
}

func (c *QuotaShowCmd) Run(ctx context.Context, stdout io.Writer) error {
	q, closeFn, err := c.limiter(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	count, err := q.Usage(ctx, services.Key(c.Identity, c.date()))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s on %s: %d/%d\n", c.Identity, c.date(), count, q.Max())
	return nil
}

type QuotaResetCmd struct {
	QuotaFlags `embed:""`
}

func (c *QuotaResetCmd) Run(ctx context.Context, stdout io.Writer) error {
	q, closeFn, err := c.limiter(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := q.Reset(ctx, c.Identity, c.date()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✓ Quota reset for %s on %s\n", c.Identity, c.date())
	return nil
}

func main() {
	godotenv.Load()

	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("portfolioctl"),
		kong.Description("Operator tool for the portfolio backend."),
		kong.UsageOnError(),
	)

	logger.Init(logger.Config{Level: cli.LogLevel, Pretty: true, Output: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(os.Stdin, (*io.Reader)(nil))
	kctx.BindTo(os.Stdout, (*io.Writer)(nil))
	kctx.FatalIfErrorf(kctx.Run())
}
