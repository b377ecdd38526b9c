package clickhouse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsGlob points at the schema sources embedded by the migrations
// package, which imports this one and so cannot be used from these tests.
const migrationsGlob = "../migrations/clickhouse/*.sql"

// setupTestDB starts a ClickHouse container, applies the history schema
// and returns a connection. Everything is torn down when the test ends.
func setupTestDB(t *testing.T) *Conn {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp", "8123/tcp"},
			Env: map[string]string{
				"CLICKHOUSE_DB":       "goals",
				"CLICKHOUSE_USER":     "default",
				"CLICKHOUSE_PASSWORD": "",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("Application: Ready for connections").WithStartupTimeout(90*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "start clickhouse container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate clickhouse container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	conn, err := NewConn(ctx, fmt.Sprintf("clickhouse://%s:%s/goals", host, port.Port()))
	require.NoError(t, err, "connect to clickhouse container")
	t.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range schemaStatements(t) {
		require.NoError(t, conn.Exec(ctx, stmt), "apply schema: %s", stmt)
	}
	return conn
}

// schemaStatements reads the migration files in order and splits them into
// single statements, since the native protocol accepts one per Exec.
func schemaStatements(t *testing.T) []string {
	t.Helper()

	files, err := filepath.Glob(migrationsGlob)
	require.NoError(t, err)
	require.NotEmpty(t, files, "no migrations found at %s", migrationsGlob)
	sort.Strings(files)

	var stmts []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)

		var body strings.Builder
		for _, line := range strings.Split(string(data), "\n") {
			if !strings.HasPrefix(strings.TrimSpace(line), "--") {
				body.WriteString(line)
				body.WriteByte('\n')
			}
		}
		for _, stmt := range strings.Split(body.String(), ";") {
			if s := strings.TrimSpace(stmt); s != "" {
				stmts = append(stmts, s)
			}
		}
	}
	return stmts
}

func ptr[T any](v T) *T {
	return &v
}
