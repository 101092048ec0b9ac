package cache

import (
	"sync"
	"sync/atomic"
)

// MemoryStore is an in-memory Repository. Reads load an immutable snapshot of
// the contract without locking; writes copy the snapshot, mutate the copy and
// swap it in under a mutex so concurrent writers cannot lose each other's
// records.
type MemoryStore struct {
	contract atomic.Value // *Contract

	mu sync.Mutex
}

// NewMemoryStore is the constructor for MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.contract.Store(NewContract())
	return s
}

func (s *MemoryStore) snapshot() *Contract {
	return s.contract.Load().(*Contract)
}

func (s *MemoryStore) mutate(fn func(c *Contract)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.snapshot().copy()
	fn(c)
	s.contract.Store(c)
}

func (s *MemoryStore) SaveAccessToken(at AccessToken) error {
	s.mutate(func(c *Contract) { c.AccessTokens[at.Key()] = at })
	return nil
}

func (s *MemoryStore) SaveRefreshToken(rt RefreshToken) error {
	s.mutate(func(c *Contract) { c.RefreshTokens[rt.Key()] = rt })
	return nil
}

func (s *MemoryStore) SaveIDToken(it IDToken) error {
	s.mutate(func(c *Contract) { c.IDTokens[it.Key()] = it })
	return nil
}

func (s *MemoryStore) SaveAccount(a Account) error {
	s.mutate(func(c *Contract) { c.Accounts[a.Key()] = a })
	return nil
}

func (s *MemoryStore) SaveAppMetadata(m AppMetadata) error {
	s.mutate(func(c *Contract) { c.AppMetadata[m.Key()] = m })
	return nil
}

func (s *MemoryStore) AccessTokens() ([]AccessToken, error) {
	c := s.snapshot()
	out := make([]AccessToken, 0, len(c.AccessTokens))
	for _, v := range c.AccessTokens {
		out = append(out, v)
	}
	return out, nil
}

func (s *MemoryStore) RefreshTokens() ([]RefreshToken, error) {
	c := s.snapshot()
	out := make([]RefreshToken, 0, len(c.RefreshTokens))
	for _, v := range c.RefreshTokens {
		out = append(out, v)
	}
	return out, nil
}

func (s *MemoryStore) IDTokens() ([]IDToken, error) {
	c := s.snapshot()
	out := make([]IDToken, 0, len(c.IDTokens))
	for _, v := range c.IDTokens {
		out = append(out, v)
	}
	return out, nil
}

func (s *MemoryStore) Accounts() ([]Account, error) {
	c := s.snapshot()
	out := make([]Account, 0, len(c.Accounts))
	for _, v := range c.Accounts {
		out = append(out, v)
	}
	return out, nil
}

func (s *MemoryStore) AppMetadata() ([]AppMetadata, error) {
	c := s.snapshot()
	out := make([]AppMetadata, 0, len(c.AppMetadata))
	for _, v := range c.AppMetadata {
		out = append(out, v)
	}
	return out, nil
}

func (s *MemoryStore) DeleteAccessToken(key string) error {
	s.mutate(func(c *Contract) { delete(c.AccessTokens, key) })
	return nil
}

func (s *MemoryStore) DeleteRefreshToken(key string) error {
	s.mutate(func(c *Contract) { delete(c.RefreshTokens, key) })
	return nil
}

func (s *MemoryStore) DeleteIDToken(key string) error {
	s.mutate(func(c *Contract) { delete(c.IDTokens, key) })
	return nil
}

func (s *MemoryStore) DeleteAccount(key string) error {
	s.mutate(func(c *Contract) { delete(c.Accounts, key) })
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contract.Store(NewContract())
	return nil
}

func (s *MemoryStore) Count() (Counts, error) {
	c := s.snapshot()
	return Counts{
		AccessTokens:  len(c.AccessTokens),
		RefreshTokens: len(c.RefreshTokens),
		IDTokens:      len(c.IDTokens),
		Accounts:      len(c.Accounts),
		AppMetadata:   len(c.AppMetadata),
	}, nil
}

// Marshal serializes the current snapshot.
func (s *MemoryStore) Marshal() ([]byte, error) {
	return s.snapshot().Marshal()
}

// Unmarshal replaces the entire store with a serialized contract.
func (s *MemoryStore) Unmarshal(b []byte) error {
	c, err := UnmarshalContract(b)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contract.Store(c)
	return nil
}
