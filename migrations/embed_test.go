package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/database"
)

func TestFS_ListsMigrationsInOrder(t *testing.T) {
	names, err := database.PendingMigrations(FS)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_catalog.up.sql", "000002_create_reviews.up.sql"}, names)
}
