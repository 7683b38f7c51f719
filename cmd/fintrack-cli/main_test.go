package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("AUTH_MODE", "dev")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClassifyFallsBackWithoutKey(t *testing.T) {
	out, err := run(t, "--backend", "memory", "classify", "coffee", "and", "cake")
	require.NoError(t, err)
	assert.Contains(t, out, "Other")
}

func TestSummaryOfEmptyLedger(t *testing.T) {
	out, err := run(t, "--backend", "memory", "summary", "--owner", "dev-me@example.com", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary for dev-me@example.com, 2024")
	assert.Contains(t, out, "$0.00")
	assert.Contains(t, out, "no expenses")
	assert.Contains(t, out, "Dec")
}

func TestMigrateRefusesNonSQLite(t *testing.T) {
	_, err := run(t, "--backend", "memory", "migrate", "version")
	require.ErrorIs(t, err, errNotSQLite)
}

func TestMigrateUpOnTempDatabase(t *testing.T) {
	db := t.TempDir() + "/cli.db"
	out, err := run(t, "--backend", "sqlite", "--db", db, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version")
	assert.Contains(t, out, "clean")
}
