package users

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/vendorverse/internal/session"
	"github.com/angelmondragon/vendorverse/internal/slot"
	"github.com/angelmondragon/vendorverse/pkg/config"
	"github.com/angelmondragon/vendorverse/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/angelmondragon/vendorverse/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.Up(context.Background(), sqlDB, config.DBDriverSQLite))

	repo, err := NewRepository(conn)
	require.NoError(t, err)
	return repo
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Seed(ctx, session.DefaultUsers()))
	require.NoError(t, repo.Seed(ctx, session.DefaultUsers()))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	merchant, err := repo.FindByEmail(ctx, "merchant@example.com")
	require.NoError(t, err)
	assert.Equal(t, session.DefaultUsers()[1], *merchant)
}

func TestFindByEmailIsExact(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Seed(ctx, session.DefaultUsers()))

	_, err := repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, session.ErrUserNotFound)
}

func TestInsertDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Seed(ctx, session.DefaultUsers()))

	err := repo.Insert(ctx, session.User{ID: "42", Email: "customer@example.com", Name: "Dup", Role: enums.RoleCustomer})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateEmail))
}

func TestSessionRegistersThroughDatabase(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Seed(ctx, session.DefaultUsers()))

	store, err := session.New(ctx, session.Params{Slot: slot.NewMemory(), Registry: repo})
	require.NoError(t, err)

	user, err := store.Register(ctx, session.RegisterInput{
		Email:     "seller@example.com",
		Password:  "pw",
		Name:      "Seller",
		Role:      enums.RoleMerchant,
		StoreName: "Seller Supplies",
	})
	require.NoError(t, err)

	stored, err := repo.FindByEmail(ctx, "seller@example.com")
	require.NoError(t, err)
	assert.Equal(t, *user, *stored)
	require.NotNil(t, stored.IsApproved)
	assert.False(t, *stored.IsApproved)

	_, err = store.Register(ctx, session.RegisterInput{Email: "seller@example.com", Password: "pw", Name: "Again", Role: enums.RoleCustomer})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateEmail))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
