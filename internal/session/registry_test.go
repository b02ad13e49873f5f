package session

import (
	"context"
	"testing"

	"github.com/angelmondragon/vendorverse/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistrySeedAndLookup(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry(DefaultUsers()...)

	count, err := registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	merchant, err := registry.FindByEmail(ctx, "merchant@example.com")
	require.NoError(t, err)
	assert.Equal(t, enums.RoleMerchant, merchant.Role)
	require.NotNil(t, merchant.IsApproved)
	assert.True(t, *merchant.IsApproved)

	_, err = registry.FindByEmail(ctx, "MERCHANT@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryRegistryRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry(DefaultUsers()...)

	err := registry.Insert(ctx, User{ID: "9", Email: "customer@example.com", Name: "Dup", Role: enums.RoleCustomer})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateEmail))

	count, _ := registry.Count(ctx)
	assert.Equal(t, 3, count)
}
