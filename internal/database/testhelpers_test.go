package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/trogers1052/stock-analytics-engine/db"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// TestDB wraps a migrated database running in a throwaway container
type TestDB struct {
	*DB
	container testcontainers.Container
}

// SetupTestDB starts PostgreSQL, connects and applies the embedded migrations
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("analytics_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	testDB := &TestDB{container: pgContainer}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		testDB.Cleanup(t)
		t.Fatalf("failed to get connection string: %v", err)
	}

	testDB.DB, err = New(connStr)
	if err != nil {
		testDB.Cleanup(t)
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := testDB.Migrate(db.Migrations, "migrations"); err != nil {
		testDB.Cleanup(t)
		t.Fatalf("failed to run migrations: %v", err)
	}
	return testDB
}

// Cleanup closes the connection and terminates the container
func (tdb *TestDB) Cleanup(t *testing.T) {
	t.Helper()

	if tdb.DB != nil {
		tdb.DB.Close()
	}
	if tdb.container != nil {
		if err := tdb.container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}
}

// TruncateAll empties the price table between subtests
func (tdb *TestDB) TruncateAll(t *testing.T) {
	t.Helper()

	if _, err := tdb.conn.Exec("TRUNCATE TABLE price_data_daily RESTART IDENTITY"); err != nil {
		t.Fatalf("failed to truncate price_data_daily: %v", err)
	}
}

// GetRawConn returns the underlying sql.DB for direct queries in tests
func (tdb *TestDB) GetRawConn() *sql.DB {
	return tdb.conn
}

func newPrice(symbol string, date time.Time, open, high, low, close float64, volume int64) *models.PriceDataDaily {
	return &models.PriceDataDaily{
		Symbol: symbol,
		Date:   date,
		Open:   decimal.NewFromFloat(open),
		High:   decimal.NewFromFloat(high),
		Low:    decimal.NewFromFloat(low),
		Close:  decimal.NewFromFloat(close),
		Volume: decimal.NewFromInt(volume),
	}
}
