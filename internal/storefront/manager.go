package storefront

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/vendorverse/internal/cart"
	"github.com/angelmondragon/vendorverse/internal/catalog"
	"github.com/angelmondragon/vendorverse/internal/session"
	"github.com/angelmondragon/vendorverse/internal/slot"
	"github.com/angelmondragon/vendorverse/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/angelmondragon/vendorverse/pkg/logger"
)

type storeMetrics interface {
	IncSessionTransition(event string)
	ObserveCartMutation(op string, itemCount int)
	IncActiveClients()
	DecActiveClients()
}

const (
	DefaultIdleTTL    = 30 * time.Minute
	DefaultMaxClients = 10000
)

// ManagerParams wires a Manager. Zero IdleTTL and MaxClients use the defaults.
type ManagerParams struct {
	Slot         slot.Store
	Registry     session.Registry
	Catalog      *catalog.Catalog
	MockPassword string
	Logger       *logger.Logger
	Metrics      storeMetrics
	IdleTTL      time.Duration
	MaxClients   int
}

// Manager hands out the per-client session and cart stores. Stores are cached
// until the client goes idle or the cache is full; an evicted client is rebuilt
// from the slot backend on its next request.
type Manager struct {
	slot         slot.Store
	registry     session.Registry
	catalog      *catalog.Catalog
	mockPassword string
	logg         *logger.Logger
	metrics      storeMetrics

	clients *expirable.LRU[string, *Client]
	opening singleflight.Group
}

func NewManager(p ManagerParams) (*Manager, error) {
	if p.Slot == nil {
		return nil, fmt.Errorf("slot store required")
	}
	if p.Registry == nil {
		return nil, fmt.Errorf("user registry required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	idleTTL := p.IdleTTL
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	maxClients := p.MaxClients
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}

	m := &Manager{
		slot:         p.Slot,
		registry:     p.Registry,
		catalog:      p.Catalog,
		mockPassword: p.MockPassword,
		logg:         logg,
		metrics:      p.Metrics,
	}
	m.clients = expirable.NewLRU[string, *Client](maxClients, m.evicted, idleTTL)
	return m, nil
}

// Catalog exposes the shared product catalog.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// Ping reports whether the slot backend is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if pinger, ok := m.slot.(slot.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// ActiveClients is the number of clients currently cached.
func (m *Manager) ActiveClients() int {
	return m.clients.Len()
}

// Open returns the client's stores, restoring them from the slot backend when
// the client is not cached. Concurrent first requests for one client share a
// single restore; other clients are not blocked by it.
func (m *Manager) Open(ctx context.Context, clientID string) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "client id required")
	}
	if client, ok := m.touch(clientID); ok {
		return client, nil
	}

	v, err, _ := m.opening.Do(clientID, func() (any, error) {
		if client, ok := m.touch(clientID); ok {
			return client, nil
		}
		// an expired entry may still be waiting for the sweeper
		m.clients.Remove(clientID)

		client, err := m.build(ctx, clientID)
		if err != nil {
			return nil, err
		}
		m.clients.Add(clientID, client)
		if m.metrics != nil {
			m.metrics.IncActiveClients()
		}
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

// touch returns a cached client and renews its idle deadline.
func (m *Manager) touch(clientID string) (*Client, bool) {
	client, ok := m.clients.Get(clientID)
	if !ok {
		return nil, false
	}
	m.clients.Add(clientID, client)
	return client, true
}

func (m *Manager) build(ctx context.Context, clientID string) (*Client, error) {
	scoped := slot.Namespace(m.slot, clientID)
	ctx = m.logg.WithClientID(ctx, clientID)

	sessions, err := session.New(ctx, session.Params{
		Slot:         scoped,
		Registry:     m.registry,
		MockPassword: m.mockPassword,
		Logger:       m.logg,
	})
	if err != nil {
		return nil, err
	}
	carts, err := cart.New(ctx, cart.Params{Slot: scoped, Logger: m.logg})
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:      clientID,
		Session: sessions,
		Cart:    carts,
		catalog: m.catalog,
	}
	client.unsubscribe = m.observe(clientID, client)
	return client, nil
}

func (m *Manager) evicted(clientID string, client *Client) {
	for _, cancel := range client.unsubscribe {
		cancel()
	}
	if m.metrics != nil {
		m.metrics.DecActiveClients()
	}
	m.logg.Debug(m.logg.WithClientID(context.Background(), clientID), "client evicted")
}

func (m *Manager) observe(clientID string, client *Client) []func() {
	base := m.logg.WithClientID(context.Background(), clientID)

	stopSession := client.Session.Subscribe(func(change session.Change) {
		ctx := m.logg.WithField(base, "event", change.Event.String())
		if change.User != nil {
			ctx = m.logg.WithUserID(ctx, change.User.ID)
			ctx = m.logg.WithActorRole(ctx, change.User.Role.String())
		}
		m.logg.Info(ctx, "session changed")
		if m.metrics != nil {
			m.metrics.IncSessionTransition(change.Event.String())
		}
	})
	stopCart := client.Cart.Subscribe(func(change cart.Change) {
		ctx := m.logg.WithFields(base, map[string]any{
			"op":         change.Op.String(),
			"item_count": change.Totals.ItemCount,
			"subtotal":   change.Totals.Subtotal.StringFixed(2),
		})
		m.logg.Info(ctx, "cart changed")
		if m.metrics != nil {
			m.metrics.ObserveCartMutation(change.Op.String(), change.Totals.ItemCount)
		}
	})
	return []func(){stopSession, stopCart}
}

// Client is the session and cart pair of one browsing client.
type Client struct {
	ID      string
	Session *session.Store
	Cart    *cart.Store

	catalog     *catalog.Catalog
	unsubscribe []func()
}

// AddToCart applies the product card rules before adding: shoppers must be
// signed in, admins cannot buy, and sold-out products are rejected.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (catalog.Product, error) {
	user := c.Session.Current()
	if err := CanPurchase(user); err != nil {
		return catalog.Product{}, err
	}
	product, err := c.catalog.GetByID(productID)
	if err != nil {
		return catalog.Product{}, err
	}
	if !product.InStock() {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeConflict, "out of stock").
			WithDetails(map[string]any{"product_id": product.ID})
	}
	if err := c.Cart.AddItem(ctx, product, quantity); err != nil {
		return catalog.Product{}, err
	}
	return product, nil
}

// CanPurchase reports whether user may put items in a cart.
func CanPurchase(user *session.User) error {
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to add items to cart")
	}
	if user.Role == enums.RoleAdmin || !user.Role.CanPurchase() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admins cannot add items to cart")
	}
	return nil
}
