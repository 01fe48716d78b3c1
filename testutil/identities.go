package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

// IdentityStore is an in-memory Identity Store.
// It logs every call and can be told to fail some of them.
type IdentityStore struct {
	mu         sync.Mutex
	identities map[string]user.Identity
	passwords  map[string]string
	calls      []string
	failures   map[string]error
}

var _ user.IdentityStore = (*IdentityStore)(nil)

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		identities: make(map[string]user.Identity),
		passwords:  make(map[string]string),
		failures:   make(map[string]error),
	}
}

// FailOn makes the calls to method ("create", "get", "update", "delete") return err.
func (s *IdentityStore) FailOn(method string, err error) {
	s.mu.Lock()
	s.failures[method] = err
	s.mu.Unlock()
}

func (s *IdentityStore) ClearFailures() {
	s.mu.Lock()
	s.failures = make(map[string]error)
	s.mu.Unlock()
}

// Calls returns the calls made, as "<method> <id or email>".
func (s *IdentityStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Add stores idt as is, giving it an id if it has none.
func (s *IdentityStore) Add(idt user.Identity) user.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idt.ID == "" {
		idt.ID = uuid.NewString()
	}
	if idt.UpdatedAt.IsZero() {
		idt.UpdatedAt = time.Now().UTC()
	}
	s.identities[idt.ID] = idt
	return idt
}

func (s *IdentityStore) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.identities[id]
	return ok
}

func (s *IdentityStore) Password(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwords[id]
}

func (s *IdentityStore) call(method, arg string) error {
	s.calls = append(s.calls, method+" "+arg)
	return s.failures[method]
}

func (s *IdentityStore) CreateIdentity(ctx context.Context, email string, metadata map[string]interface{}) (user.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("create", email); err != nil {
		return user.Identity{}, err
	}
	for _, idt := range s.identities {
		if strings.EqualFold(idt.Email, email) {
			return user.Identity{}, user.ErrEmailExists
		}
	}
	idt := user.Identity{ID: uuid.NewString(), Email: email, UpdatedAt: time.Now().UTC(), Metadata: metadata}
	s.identities[idt.ID] = idt
	return idt, nil
}

func (s *IdentityStore) GetIdentity(ctx context.Context, filter user.GetFilter) (user.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("get", filter.String()); err != nil {
		return user.Identity{}, err
	}
	if filter.ID != "" {
		if idt, ok := s.identities[filter.ID]; ok {
			return idt, nil
		}
		return user.Identity{}, user.ErrNotFound
	}
	for _, idt := range s.identities {
		if filter.Email != "" && strings.EqualFold(idt.Email, filter.Email) {
			return idt, nil
		}
	}
	return user.Identity{}, user.ErrNotFound
}

// UpdatePassword bumps UpdatedAt, which invalidates the setup tokens issued before.
func (s *IdentityStore) UpdatePassword(ctx context.Context, id, password string) (user.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("update", id); err != nil {
		return user.Identity{}, err
	}
	idt, ok := s.identities[id]
	if !ok {
		return user.Identity{}, user.ErrNotFound
	}
	idt.UpdatedAt = time.Now().UTC().Add(time.Millisecond)
	s.identities[id] = idt
	s.passwords[id] = password
	return idt, nil
}

func (s *IdentityStore) DeleteIdentity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("delete", id); err != nil {
		return err
	}
	if _, ok := s.identities[id]; !ok {
		return user.ErrNotFound
	}
	delete(s.identities, id)
	delete(s.passwords, id)
	return nil
}
