package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_EmbeddedSchema(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, Migrations(), zap.NewNop())

	applied, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	for _, table := range []string{"expense_claims", "expense_rows", "fuel_settings", "corporate_cards", "claim_status_history", "claim_drafts"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, table)
	}

	// a second run is a no-op
	applied, err = m.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestMigrator_OrderAndStatus(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"002_add_note.sql": {Data: []byte("ALTER TABLE widgets ADD COLUMN note TEXT;")},
		"001_widgets.sql":  {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"README.md":        {Data: []byte("ignored")},
	}
	m := NewMigrator(db, source, zap.NewNop())

	applied, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	statuses, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, 1, statuses[0].Version)
	assert.Equal(t, "widgets", statuses[0].Name)
	assert.Equal(t, "add_note", statuses[1].Name)
	assert.True(t, statuses[1].Applied)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE a (id INTEGER PRIMARY KEY);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE b (id INTEGER PRIMARY KEY); NOT SQL;")},
	}
	m := NewMigrator(db, source, zap.NewNop())

	applied, err := m.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, applied)

	statuses, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'b'").Scan(&name)
	assert.Error(t, err)
}

func TestMigrator_InvalidFilename(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, fstest.MapFS{"init.sql": {Data: []byte("SELECT 1;")}}, zap.NewNop())

	_, err := m.Run(context.Background())
	assert.ErrorContains(t, err, "invalid migration filename")
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}
