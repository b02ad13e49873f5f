package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/vendorverse/internal/slot"
	"github.com/angelmondragon/vendorverse/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/angelmondragon/vendorverse/pkg/logger"
	"github.com/google/uuid"
)

const DefaultMockPassword = "password"

// Change describes a completed session transition. User is nil after logout.
type Change struct {
	Event enums.SessionEvent
	User  *User
}

// Listener receives session changes after the store has released its lock.
type Listener func(Change)

// Params wires a Store.
type Params struct {
	Slot         slot.Store
	Registry     Registry
	MockPassword string
	Logger       *logger.Logger
	IDFunc       func() (string, error)
}

// Store owns the current identity of one client.
type Store struct {
	slot         slot.Store
	registry     Registry
	mockPassword string
	logg         *logger.Logger
	newID        func() (string, error)

	mu      sync.Mutex
	current *User

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// New builds a Store and restores the identity persisted in the slot. Absent or
// unreadable identities start the store anonymous.
func New(ctx context.Context, p Params) (*Store, error) {
	if p.Slot == nil {
		return nil, fmt.Errorf("slot store required")
	}
	if p.Registry == nil {
		return nil, fmt.Errorf("user registry required")
	}
	s := &Store{
		slot:         p.Slot,
		registry:     p.Registry,
		mockPassword: p.MockPassword,
		logg:         p.Logger,
		newID:        p.IDFunc,
		listeners:    make(map[int]Listener),
	}
	if s.mockPassword == "" {
		s.mockPassword = DefaultMockPassword
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.newID == nil {
		s.newID = newUserID
	}
	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newUserID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) restore(ctx context.Context) error {
	user, found, err := slot.Load[User](ctx, s.slot, slot.KeyCurrentIdentity)
	switch {
	case pkgerrors.HasCode(err, pkgerrors.CodeMalformedState):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discarding malformed persisted identity")
		return nil
	case err != nil:
		return err
	case !found:
		return nil
	case !user.valid():
		s.logg.Warn(ctx, "discarding incomplete persisted identity")
		return nil
	}
	s.current = user.clone()
	return nil
}

// Current returns a copy of the signed-in identity, or nil when anonymous.
func (s *Store) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.clone()
}

// Login signs in the registry user matching email when password equals the
// mock credential. Failures leave the current identity untouched.
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	s.mu.Lock()
	user, err := s.registry.FindByEmail(ctx, email)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrUserNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.mockPassword)) != 1 {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, "invalid credentials")
	}
	if err := slot.Save(ctx, s.slot, slot.KeyCurrentIdentity, user); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.current = user.clone()
	s.mu.Unlock()

	s.notify(Change{Event: enums.SessionEventLogin, User: user.clone()})
	return user, nil
}

// Logout clears the identity and its slot. The in-memory identity is cleared
// even when the slot delete fails; that failure is returned.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasSignedIn := s.current != nil
	s.current = nil
	err := slot.Remove(ctx, s.slot, slot.KeyCurrentIdentity)
	s.mu.Unlock()

	if wasSignedIn {
		s.notify(Change{Event: enums.SessionEventLogout})
	}
	return err
}

// Register creates a registry user and signs it in. Merchants always start
// unapproved.
func (s *Store) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, err := s.registry.FindByEmail(ctx, in.Email); err == nil {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateEmail, "user already exists")
	} else if !errors.Is(err, ErrUserNotFound) {
		s.mu.Unlock()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	id, err := s.newID()
	if err != nil {
		s.mu.Unlock()
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate user id")
	}
	user := in.toUser(id)

	if err := s.registry.Insert(ctx, user); err != nil {
		s.mu.Unlock()
		if pkgerrors.HasCode(err, pkgerrors.CodeDuplicateEmail) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert user")
	}
	if err := slot.Save(ctx, s.slot, slot.KeyCurrentIdentity, user); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.current = user.clone()
	s.mu.Unlock()

	s.notify(Change{Event: enums.SessionEventRegister, User: user.clone()})
	return user.clone(), nil
}

// Subscribe registers fn for future changes and returns a cancel func.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) notify(change Change) {
	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}
