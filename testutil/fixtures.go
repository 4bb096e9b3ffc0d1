package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateFixtures inserts rows directly, bypassing any store validation.
func CreateFixtures(t *testing.T, db *gorm.DB, rows ...interface{}) {
	t.Helper()
	for i, row := range rows {
		require.NoError(t, db.Create(row).Error, "fixture %d", i)
	}
}
