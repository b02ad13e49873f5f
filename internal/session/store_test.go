package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/angelmondragon/vendorverse/internal/slot"
	"github.com/angelmondragon/vendorverse/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, backend slot.Store, registry Registry) *Store {
	t.Helper()
	counter := 0
	store, err := New(context.Background(), Params{
		Slot:     backend,
		Registry: registry,
		IDFunc: func() (string, error) {
			counter++
			return fmt.Sprintf("user-%d", counter), nil
		},
	})
	require.NoError(t, err)
	return store
}

func TestLoginWrongPasswordLeavesIdentityUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, slot.NewMemory(), NewMemoryRegistry(DefaultUsers()...))

	for _, user := range DefaultUsers() {
		_, err := store.Login(ctx, user.Email, "wrong")
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidCredentials))
		assert.Nil(t, store.Current())
	}

	_, err := store.Login(ctx, "customer@example.com", DefaultMockPassword)
	require.NoError(t, err)

	_, err = store.Login(ctx, "admin@vendorverse.com", "wrong")
	require.Error(t, err)
	require.NotNil(t, store.Current())
	assert.Equal(t, "customer@example.com", store.Current().Email)
}

func TestLoginUnknownEmail(t *testing.T) {
	store := newTestStore(t, slot.NewMemory(), NewMemoryRegistry(DefaultUsers()...))

	_, err := store.Login(context.Background(), "Admin@vendorverse.com", DefaultMockPassword)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidCredentials))
}

func TestLoginAdminSucceeds(t *testing.T) {
	ctx := context.Background()
	backend := slot.NewMemory()
	store := newTestStore(t, backend, NewMemoryRegistry(DefaultUsers()...))

	user, err := store.Login(ctx, "admin@vendorverse.com", "password")
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, user.Role)

	_, found, err := backend.Get(ctx, slot.KeyCurrentIdentity)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRegisterMerchantStartsUnapproved(t *testing.T) {
	store := newTestStore(t, slot.NewMemory(), NewMemoryRegistry(DefaultUsers()...))

	user, err := store.Register(context.Background(), RegisterInput{
		Email:            "shop@example.com",
		Password:         "secret",
		Name:             "Shop Owner",
		Role:             enums.RoleMerchant,
		StoreName:        "Gadget Barn",
		StoreDescription: "All the gadgets",
	})
	require.NoError(t, err)
	require.NotNil(t, user.IsApproved)
	assert.False(t, *user.IsApproved)
	require.NotNil(t, user.StoreName)
	assert.Equal(t, "Gadget Barn", *user.StoreName)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, user, store.Current())
}

func TestRegisterCustomerDropsStoreFields(t *testing.T) {
	store := newTestStore(t, slot.NewMemory(), NewMemoryRegistry())

	user, err := store.Register(context.Background(), RegisterInput{
		Email:     "buyer@example.com",
		Password:  "secret",
		Name:      "Buyer",
		Role:      enums.RoleCustomer,
		StoreName: "Should Not Stick",
	})
	require.NoError(t, err)
	assert.Nil(t, user.IsApproved)
	assert.Nil(t, user.StoreName)
	assert.Nil(t, user.StoreDescription)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry(DefaultUsers()...)
	store := newTestStore(t, slot.NewMemory(), registry)

	before, err := registry.Count(ctx)
	require.NoError(t, err)

	input := RegisterInput{Email: "new@example.com", Password: "x", Name: "New", Role: enums.RoleCustomer}
	first, err := store.Register(ctx, input)
	require.NoError(t, err)

	_, err = store.Register(ctx, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateEmail))

	after, err := registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
	assert.Equal(t, first, store.Current())
}

func TestRegisterValidation(t *testing.T) {
	store := newTestStore(t, slot.NewMemory(), NewMemoryRegistry())

	cases := map[string]RegisterInput{
		"missing email":       {Password: "x", Name: "A", Role: enums.RoleCustomer},
		"missing password":    {Email: "a@example.com", Name: "A", Role: enums.RoleCustomer},
		"unknown role":        {Email: "a@example.com", Password: "x", Name: "A", Role: enums.Role("owner")},
		"merchant store name": {Email: "a@example.com", Password: "x", Name: "A", Role: enums.RoleMerchant, StoreName: "  "},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := store.Register(context.Background(), input)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
			assert.Nil(t, store.Current())
		})
	}
}

func TestIdentitySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	backend := slot.NewMemory()
	registry := NewMemoryRegistry(DefaultUsers()...)

	first := newTestStore(t, backend, registry)
	persisted, err := first.Login(ctx, "merchant@example.com", "password")
	require.NoError(t, err)

	restarted := newTestStore(t, backend, registry)
	assert.Equal(t, persisted, restarted.Current())
}

func TestMalformedIdentityStartsAnonymous(t *testing.T) {
	ctx := context.Background()
	backend := slot.NewMemory()
	require.NoError(t, backend.Set(ctx, slot.KeyCurrentIdentity, []byte("not-json")))

	store := newTestStore(t, backend, NewMemoryRegistry())
	assert.Nil(t, store.Current())

	require.NoError(t, backend.Set(ctx, slot.KeyCurrentIdentity, []byte(`{"id":"","role":"pirate"}`)))
	store = newTestStore(t, backend, NewMemoryRegistry())
	assert.Nil(t, store.Current())
}

func TestStartupBackendFailure(t *testing.T) {
	_, err := New(context.Background(), Params{Slot: brokenSlot{}, Registry: NewMemoryRegistry()})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	backend := slot.NewMemory()
	registry := NewMemoryRegistry(DefaultUsers()...)
	store := newTestStore(t, backend, registry)

	require.NoError(t, store.Logout(ctx))

	_, err := store.Login(ctx, "customer@example.com", "password")
	require.NoError(t, err)
	require.NoError(t, store.Logout(ctx))
	assert.Nil(t, store.Current())

	_, found, err := backend.Get(ctx, slot.KeyCurrentIdentity)
	require.NoError(t, err)
	assert.False(t, found)

	count, err := registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLogoutClearsMemoryWhenSlotFails(t *testing.T) {
	ctx := context.Background()
	backend := &flakySlot{Memory: slot.NewMemory()}
	store := newTestStore(t, backend, NewMemoryRegistry(DefaultUsers()...))
	_, err := store.Login(ctx, "customer@example.com", "password")
	require.NoError(t, err)

	backend.failDelete = true
	err = store.Logout(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Nil(t, store.Current())
}

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	backend := &flakySlot{Memory: slot.NewMemory(), failSet: true}
	store := newTestStore(t, backend, NewMemoryRegistry(DefaultUsers()...))

	_, err := store.Login(ctx, "customer@example.com", "password")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Nil(t, store.Current())
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, slot.NewMemory(), NewMemoryRegistry(DefaultUsers()...))

	var events []enums.SessionEvent
	cancel := store.Subscribe(func(change Change) {
		events = append(events, change.Event)
	})

	_, err := store.Login(ctx, "customer@example.com", "password")
	require.NoError(t, err)
	_, _ = store.Login(ctx, "customer@example.com", "bad")
	require.NoError(t, store.Logout(ctx))
	require.NoError(t, store.Logout(ctx))

	cancel()
	cancel()
	_, err = store.Register(ctx, RegisterInput{Email: "z@example.com", Password: "x", Name: "Z", Role: enums.RoleCustomer})
	require.NoError(t, err)

	assert.Equal(t, []enums.SessionEvent{enums.SessionEventLogin, enums.SessionEventLogout}, events)
}

func TestCurrentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, slot.NewMemory(), NewMemoryRegistry(DefaultUsers()...))
	_, err := store.Login(ctx, "merchant@example.com", "password")
	require.NoError(t, err)

	current := store.Current()
	*current.StoreName = "Changed"
	current.Name = "Changed"

	again := store.Current()
	assert.Equal(t, "Tech Haven", *again.StoreName)
	assert.Equal(t, "John Smith", again.Name)
}

type brokenSlot struct{}

func (brokenSlot) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenSlot) Set(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func (brokenSlot) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

type flakySlot struct {
	*slot.Memory
	failSet    bool
	failDelete bool
}

func (f *flakySlot) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("write failed")
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *flakySlot) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("delete failed")
	}
	return f.Memory.Delete(ctx, key)
}
