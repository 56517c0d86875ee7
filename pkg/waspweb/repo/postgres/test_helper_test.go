package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const testSchema = "waspweb_test"

// TestDB represents a test database connection
type TestDB struct {
	Pool *pgxpool.Pool
}

// NewTestDB creates a new test database connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")

	err = pool.Ping(ctx)
	require.NoError(t, err, "Failed to ping test database")

	return &TestDB{
		Pool: pool,
	}
}

// Setup initializes the test database with required schema and tables
func (db *TestDB) Setup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	statements := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + testSchema,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.profiles_public (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL,
			avatar_url TEXT,
			discord_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.profiles_protected (
			id UUID PRIMARY KEY REFERENCES ` + testSchema + `.profiles_public(id),
			administrator BOOLEAN NOT NULL DEFAULT false,
			moderator BOOLEAN NOT NULL DEFAULT false,
			scripter BOOLEAN NOT NULL DEFAULT false,
			tester BOOLEAN NOT NULL DEFAULT false,
			premium BOOLEAN NOT NULL DEFAULT false,
			vip BOOLEAN NOT NULL DEFAULT false,
			customer_id TEXT,
			subscription_id TEXT,
			subscription_status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.profiles_private (
			id UUID PRIMARY KEY REFERENCES ` + testSchema + `.profiles_public(id),
			email TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.scripts_public (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			categories TEXT[] NOT NULL DEFAULT '{}',
			subcategories TEXT[] NOT NULL DEFAULT '{}',
			published BOOLEAN NOT NULL DEFAULT true,
			min_xp INTEGER NOT NULL DEFAULT 0,
			max_xp INTEGER NOT NULL DEFAULT 0,
			min_gp INTEGER NOT NULL DEFAULT 0,
			max_gp INTEGER NOT NULL DEFAULT 0,
			search_script TEXT GENERATED ALWAYS AS (title || ' ' || description || ' ' || content) STORED
		)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.scripts_protected (
			id UUID PRIMARY KEY REFERENCES ` + testSchema + `.scripts_public(id),
			author_id UUID NOT NULL,
			revision INTEGER NOT NULL DEFAULT 1,
			assets_path TEXT,
			assets_alt TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.stats_scripts (
			id UUID PRIMARY KEY REFERENCES ` + testSchema + `.scripts_public(id),
			experience BIGINT, gold BIGINT, runtime BIGINT, levels BIGINT,
			total_unique_users BIGINT, total_current_users BIGINT, total_monthly_users BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.scripts_categories (name TEXT PRIMARY KEY, emoji TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.scripts_subcategories (category TEXT NOT NULL, name TEXT NOT NULL, emoji TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.developers (
			id UUID PRIMARY KEY REFERENCES ` + testSchema + `.profiles_public(id),
			description TEXT, github TEXT, paypal_id TEXT, content TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.stats (
			"userID" UUID PRIMARY KEY,
			username TEXT NOT NULL,
			experience BIGINT NOT NULL DEFAULT 0,
			gold BIGINT NOT NULL DEFAULT 0,
			levels BIGINT NOT NULL DEFAULT 0,
			runtime BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE OR REPLACE FUNCTION ` + testSchema + `.get_stats_total()
			RETURNS TABLE (experience BIGINT, gold BIGINT, levels BIGINT, runtime BIGINT)
			LANGUAGE sql AS $$
				SELECT SUM(experience)::BIGINT, SUM(gold)::BIGINT, SUM(levels)::BIGINT, SUM(runtime)::BIGINT
				FROM ` + testSchema + `.stats
			$$`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.tutorials (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			url TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			content TEXT,
			level INTEGER NOT NULL DEFAULT 0,
			published BOOLEAN NOT NULL DEFAULT true,
			author_id UUID NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + testSchema + `.packages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT UNIQUE NOT NULL
		)`,
	}

	for _, statement := range statements {
		_, err := db.Pool.Exec(ctx, statement)
		require.NoError(t, err, "Failed to set up test schema")
	}
}

// Cleanup removes all test data from the database
func (db *TestDB) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := db.Pool.Exec(ctx, `TRUNCATE `+
		testSchema+`.stats_scripts, `+
		testSchema+`.scripts_protected, `+
		testSchema+`.scripts_public, `+
		testSchema+`.scripts_categories, `+
		testSchema+`.scripts_subcategories, `+
		testSchema+`.developers, `+
		testSchema+`.profiles_private, `+
		testSchema+`.profiles_protected, `+
		testSchema+`.profiles_public, `+
		testSchema+`.stats, `+
		testSchema+`.tutorials, `+
		testSchema+`.packages CASCADE`)
	require.NoError(t, err, "Failed to truncate test tables")
}

// Close closes the database connection
func (db *TestDB) Close(t *testing.T) {
	t.Helper()
	db.Pool.Close()
}

// RunTest runs a test with database setup and cleanup
func RunTest(t *testing.T, testFunc func(t *testing.T, db *TestDB)) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db := NewTestDB(t)
	defer db.Close(t)

	db.Setup(t)

	t.Run("", func(t *testing.T) {
		db.Cleanup(t)
		testFunc(t, db)
	})
}
