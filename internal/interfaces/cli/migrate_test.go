package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommand_Structure(t *testing.T) {
	root := NewRootCommand()

	migrateCmd, _, err := root.Find([]string{"migrate"})
	require.NoError(t, err)

	pathFlag := migrateCmd.PersistentFlags().Lookup("path")
	require.NotNil(t, pathFlag)
	assert.Equal(t, "migrations", pathFlag.DefValue)

	names := make([]string, 0, len(migrateCmd.Commands()))
	for _, sub := range migrateCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "status", "force"}, names)

	downCmd, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	stepsFlag := downCmd.Flags().Lookup("steps")
	require.NotNil(t, stepsFlag)
	assert.Equal(t, "1", stepsFlag.DefValue)
}

func TestMigrateForceCommand_RejectsNonInteger(t *testing.T) {
	_, _, err := runCLI(t, "migrate", "force", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer")
}

func TestMigrationStatusOutput(t *testing.T) {
	t.Run("fresh database", func(t *testing.T) {
		out := &migrationStatusOutput{}
		assert.Equal(t, "No migrations applied yet.\n", out.String())
	})

	t.Run("clean schema", func(t *testing.T) {
		out := &migrationStatusOutput{Version: 5}
		s := out.String()
		assert.Contains(t, s, "Schema version: 5")
		assert.Contains(t, s, "clean")
	})

	t.Run("dirty schema", func(t *testing.T) {
		out := &migrationStatusOutput{Version: 3, Dirty: true}
		assert.Contains(t, out.String(), "dirty")
	})

	t.Run("table rows", func(t *testing.T) {
		out := &migrationStatusOutput{Version: 7, Dirty: true}
		assert.Equal(t, []string{"VERSION", "DIRTY"}, out.TableHeaders())
		assert.Equal(t, [][]string{{"7", "true"}}, out.TableRows())
	})
}
