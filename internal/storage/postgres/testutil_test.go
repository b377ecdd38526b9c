package postgres

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"wealth-planner/internal/domain"
)

// migrationsGlob points at the schema sources embedded by the migrations
// package, which imports this one and so cannot be used from these tests.
const migrationsGlob = "../migrations/postgres/*.sql"

// setupTestDB starts a PostgreSQL container whose init scripts are the
// schema migrations. The container is removed when the test ends.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	scripts, err := filepath.Glob(migrationsGlob)
	require.NoError(t, err)
	require.NotEmpty(t, scripts, "no migrations found at %s", migrationsGlob)
	sort.Strings(scripts)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("goals"),
		tcpostgres.WithUsername("planner"),
		tcpostgres.WithPassword("planner"),
		tcpostgres.WithInitScripts(scripts...),
		testcontainers.WithWaitStrategy(
			// The server restarts once after running init scripts.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn, 4)
	require.NoError(t, err, "connect to postgres container")
	t.Cleanup(pool.Close)

	return pool
}

// testGoal builds a goal with timestamps truncated to microseconds,
// the resolution of TIMESTAMPTZ.
func testGoal(id string, created time.Time) *domain.Goal {
	created = created.UTC().Truncate(time.Microsecond)
	return &domain.Goal{
		GoalID:              id,
		Name:                "Goal " + id,
		BeneficiaryID:       "member-1",
		TargetAmount:        10_000_000,
		YearsUntilDue:       10,
		ExpectedReturn:      0.10,
		Volatility:          0.15,
		MonthlyContribution: 30_000,
		CreatedAt:           created,
		UpdatedAt:           created,
	}
}
