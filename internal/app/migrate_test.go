package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boutique-pos/internal/app"
)

func TestRunMigrationsValidatesInput(t *testing.T) {
	require.Error(t, app.RunMigrations("", "../../migrations", app.MigrateUp))
	require.Error(t, app.RunMigrations("postgres://localhost:1/pos?sslmode=disable", "../../migrations", "sideways"))
}
