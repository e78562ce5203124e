package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no orders migration file found")

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS line_items",
		"CREATE TABLE IF NOT EXISTS payments",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_user_pending",
		"WHERE status = 'PENDING' AND confirmed = false",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_line_items_open_cart",
		"WHERE order_id IS NULL AND fulfilled = false",
		"CHECK (quantity > 0)",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE SET NULL",
		"DROP TABLE IF EXISTS payments",
	}

	for _, sub := range checks {
		assert.Contains(t, content, sub)
	}
}
