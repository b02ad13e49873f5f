package slot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
)

const (
	KeyCurrentIdentity = "current-identity"
	KeyCurrentCart     = "current-cart"
)

// Store persists opaque blobs by key. A missing key is reported through the
// found flag, never as an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Load decodes the JSON blob stored at key into T.
func Load[T any](ctx context.Context, store Store, key string) (T, bool, error) {
	var out T
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return out, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("read slot %s", key))
	}
	if !found {
		return out, false, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, false, pkgerrors.Wrap(pkgerrors.CodeMalformedState, err, fmt.Sprintf("decode slot %s", key))
	}
	return out, true, nil
}

// Save encodes value as JSON and writes it to key.
func Save(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encode slot %s", key))
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("write slot %s", key))
	}
	return nil
}

// Remove deletes key, wrapping backend failures.
func Remove(ctx context.Context, store Store, key string) error {
	if err := store.Delete(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("delete slot %s", key))
	}
	return nil
}

type namespaced struct {
	inner  Store
	prefix string
}

// Namespace scopes every key of store under prefix, so one backend can hold the
// slots of many clients.
func Namespace(store Store, prefix string) Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return store
	}
	return &namespaced{inner: store, prefix: prefix}
}

func (n *namespaced) key(key string) string {
	return n.prefix + ":" + key
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.key(key))
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.key(key), value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.key(key))
}

func (n *namespaced) Ping(ctx context.Context) error {
	if pinger, ok := n.inner.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
