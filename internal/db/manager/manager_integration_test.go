package manager_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/ddlstore/internal/db"
	"github.com/vvka-141/ddlstore/internal/db/manager"
	testhelpers "github.com/vvka-141/ddlstore/internal/testing"
)

func TestManager_Integration_CreateExistsDrop(t *testing.T) {
	conn := db.NewPoolAdapter(testhelpers.RequirePool(t))
	ctx := context.Background()
	m := manager.New()
	table := pgx.Identifier{"manager_it", "Item_" + uuid.New().String()[:8]}
	t.Cleanup(func() { _ = m.DropTable(context.Background(), conn, table) })

	exists, err := m.TableExists(ctx, conn, table)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.CreateTable(ctx, conn, table, itemSchema(t)))
	require.NoError(t, m.CreateTable(ctx, conn, table, itemSchema(t)), "create is idempotent")

	exists, err = m.TableExists(ctx, conn, table)
	require.NoError(t, err)
	assert.True(t, exists)

	var id int64
	var disabled bool
	err = conn.QueryRow(ctx,
		`INSERT INTO `+table.Sanitize()+` ("Title", "CreatedBy") VALUES ($1, $2) RETURNING "ItemId", "IsDisabled"`,
		"lamp", "tester").Scan(&id, &disabled)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.False(t, disabled, "BIT default 0 becomes false")

	require.NoError(t, m.DropTable(ctx, conn, table))
	require.NoError(t, m.DropTable(ctx, conn, table), "dropping a missing table is a no-op")

	exists, err = m.TableExists(ctx, conn, table)
	require.NoError(t, err)
	assert.False(t, exists)
}
