package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/pkg/errors"
)

func TestMigrationSource(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		expect string
	}{
		{"migrations", "file://migrations"},
		{"./db/migrations", "file://./db/migrations"},
		{"file://migrations", "file://migrations"},
		{"github://owner/repo/migrations", "github://owner/repo/migrations"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expect, migrationSource(tc.in), "input %q", tc.in)
	}
}

func TestMigrateDownRejectsNonPositiveSteps(t *testing.T) {
	t.Parallel()

	db := &DB{}
	for _, steps := range []int{0, -1} {
		err := db.MigrateDown("file://migrations", steps)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	}
}
