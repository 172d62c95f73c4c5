package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/repository"
)

type Env struct {
	Pool    *pgxpool.Pool
	Cache   *redis.Client
	Queries *repository.Queries
}

// Context returns a context carrying a console logger.
func Context() context.Context {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()
	return logger.WithContext(context.Background())
}

func migrationScripts(t *testing.T) []string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("failed locating testutil package")
	}
	dir := filepath.Join(filepath.Dir(file), "..", "..", "migrations")
	scripts, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("failed listing migrations with error: %s", err)
	}
	sort.Strings(scripts)
	return scripts
}

// Setup starts postgres with every migration applied and a redis instance. Both are
// terminated when the test ends.
func Setup(t *testing.T, c context.Context) *Env {
	t.Helper()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(migrationScripts(t)...),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Errorf("failed to terminate postgres container: %s", err)
		}
	})

	pgConnStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pgConfig, err := pgxpool.ParseConfig(pgConnStr)
	if err != nil {
		t.Fatalf("failed parsing pgx config with error: %s", err)
	}
	pgConfig.AfterConnect = infra.RegisterTypes

	pool, err := pgxpool.NewWithConfig(c, pgConfig)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	t.Cleanup(pool.Close)
	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Errorf("failed to terminate redis container: %s", err)
		}
	})

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis url with error: %s", err)
	}
	cache := redis.NewClient(redisOpt)
	t.Cleanup(func() { _ = cache.Close() })
	if err = cache.Ping(c).Err(); err != nil {
		t.Fatalf("failed ping redis client with error: %s", err)
	}

	return &Env{Pool: pool, Cache: cache, Queries: repository.New(pool)}
}

// Redis starts only a redis instance.
func Redis(t *testing.T, c context.Context) *redis.Client {
	t.Helper()

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Errorf("failed to terminate redis container: %s", err)
		}
	})

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis url with error: %s", err)
	}
	cache := redis.NewClient(redisOpt)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}
