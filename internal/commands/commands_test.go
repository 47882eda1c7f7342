package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useTempDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expense.db")
	t.Setenv("EXPENSE_DB_PATH", path)
	return path
}

func TestQuoteFuel(t *testing.T) {
	out, err := execute(t, "quote", "fuel",
		"--price", "1663",
		"--distance", "100",
		"--base-efficiency", "12.8",
		"--maintenance-rate", "1.2",
		"--toll", "2,000",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "fuel cost:       15,590")
	assert.Contains(t, out, "total:           17,590")
}

func TestQuoteFuel_VehicleEfficiency(t *testing.T) {
	out, err := execute(t, "quote", "fuel", "--price", "1000", "--distance", "100", "--vehicle-efficiency", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "base efficiency: 12.8")
}

func TestQuoteFuel_NoneOnlyToll(t *testing.T) {
	out, err := execute(t, "quote", "fuel", "--fuel", "none", "--price", "0", "--distance", "500", "--toll", "3000")
	require.NoError(t, err)
	assert.Contains(t, out, "fuel cost:       0")
	assert.Contains(t, out, "total:           3,000")
}

func TestQuoteFuel_RequiresEfficiency(t *testing.T) {
	_, err := execute(t, "quote", "fuel", "--price", "1663", "--distance", "100")
	assert.Error(t, err)

	_, err = execute(t, "quote", "fuel", "--price", "abc")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	useTempDatabase(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 1 migration(s)")
	assert.Contains(t, out, "applied")

	out, err = execute(t, "migrate", "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "pending")
}

func TestSettings_SetAndShow(t *testing.T) {
	useTempDatabase(t)

	_, err := execute(t, "settings", "set-fuel", "2025-03",
		"--gasoline", "1663", "--diesel", "1500", "--lpg", "1000",
		"--base-efficiency", "12.8", "--maintenance-rate", "1.2")
	require.NoError(t, err)

	out, err := execute(t, "settings", "show", "2025-03")
	require.NoError(t, err)
	assert.Contains(t, out, "gasoline:         1663")
	assert.Contains(t, out, "maintenance rate: 1.2")
}

func TestSettings_InvalidInput(t *testing.T) {
	useTempDatabase(t)

	_, err := execute(t, "settings", "show", "2025-13")
	assert.Error(t, err)

	_, err = execute(t, "settings", "set-fuel", "2025-03", "--gasoline", "cheap")
	assert.Error(t, err)
}

func TestExport_NeedsExactlyOneTarget(t *testing.T) {
	_, err := execute(t, "export")
	assert.Error(t, err)

	_, err = execute(t, "export", "2025-03", "--claim", "4")
	assert.Error(t, err)
}

func TestExport_EmptyPeriodLeavesNoFile(t *testing.T) {
	useTempDatabase(t)
	output := filepath.Join(t.TempDir(), "march.xlsx")

	_, err := execute(t, "export", "2025-03", "-o", output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no claims")
	assert.NoFileExists(t, output)
}
