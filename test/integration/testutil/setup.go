//go:build integration

package testutil

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/raidroster/api/internal/app"
	"github.com/raidroster/api/internal/auth"
	"github.com/raidroster/api/internal/guard"
	"github.com/raidroster/api/internal/handler"
	"github.com/raidroster/api/internal/infra"
	"github.com/raidroster/api/internal/repository"
)

const (
	TestIssuer   = "https://raidroster-test.eu.auth0.com/"
	TestAudience = "https://api.raidroster.test"
	TestAPIKey   = "rr-integration-key-0001"
	TestKeyID    = "integration-key"
	TestDBHost   = "localhost"
	TestDBPort   = 5435
	TestDBUser   = "raidroster"
	TestDBPass   = "raidroster"
	TestDBName   = "raidroster_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server   *httptest.Server
	Pool     *pgxpool.Pool
	Notifier *CaptureNotifier
	key      *rsa.PrivateKey
	t        *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "raidroster")
}

func ensureTestDB() error {
	if os.Getenv("TEST_DATABASE_URL") != "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to the main database to create the test database
	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		_, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName))
		if err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}

	return nil
}

func runMigrations() error {
	m, err := newMigrate("file://"+infra.FindMigrationDir(), testDSN())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}
		if err := runMigrations(); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sharedPool, poolErr = infra.NewPostgresPool(ctx, testDSN())
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by the real router and test DB.
// Tokens are verified against a JWK Set built from a per-test RSA key.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	kf, err := infra.SigningKeysFromJSON(JWKS(t, TestKeyID, &key.PublicKey))
	if err != nil {
		t.Fatalf("signing keys: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	notifier := &CaptureNotifier{}

	router := app.NewRouter(app.RouterDeps{
		Players:         repository.NewPgPlayerStore(pool),
		Logger:          logger,
		TokenValidator:  auth.NewTokenValidator(auth.TokenConfig{Issuer: TestIssuer, Audience: TestAudience}, kf),
		APIKeyValidator: auth.NewAPIKeyValidator([]string{TestAPIKey}, logger),
		AuthInfo: handler.AuthInfo{
			Authority:        TestIssuer,
			Audience:         TestAudience,
			TokenAuthEnabled: true,
			APIKeyEnabled:    true,
		},
		Notifier:           notifier,
		FeedbackLimiter:    guard.NewRateLimiter(10, time.Hour),
		CORSAllowedOrigins: "*",
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server:   server,
		Pool:     pool,
		Notifier: notifier,
		key:      key,
		t:        t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}

// Token signs a token for sub with the environment's key. extra overrides or
// adds claims.
func (env *TestEnv) Token(sub string, extra jwt.MapClaims) string {
	env.t.Helper()
	claims := jwt.MapClaims{
		"iss": TestIssuer,
		"aud": TestAudience,
		"sub": sub,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = TestKeyID
	signed, err := tok.SignedString(env.key)
	if err != nil {
		env.t.Fatalf("sign token: %v", err)
	}
	return signed
}
