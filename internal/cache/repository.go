package cache

// Counts reports how many records of each type a repository holds.
type Counts struct {
	AccessTokens  int
	RefreshTokens int
	IDTokens      int
	Accounts      int
	AppMetadata   int
}

// Repository is the persistence boundary for credential records. Writes are
// whole-record upserts keyed by each record's derived key; reads return every
// record of a type and the caller filters in memory. Implementations must be
// safe for concurrent use, but a read followed by a write is not atomic --
// cross-request serialization belongs to the before/after access hooks, not
// to the repository.
type Repository interface {
	SaveAccessToken(at AccessToken) error
	SaveRefreshToken(rt RefreshToken) error
	SaveIDToken(it IDToken) error
	SaveAccount(a Account) error
	SaveAppMetadata(m AppMetadata) error

	AccessTokens() ([]AccessToken, error)
	RefreshTokens() ([]RefreshToken, error)
	IDTokens() ([]IDToken, error)
	Accounts() ([]Account, error)
	AppMetadata() ([]AppMetadata, error)

	DeleteAccessToken(key string) error
	DeleteRefreshToken(key string) error
	DeleteIDToken(key string) error
	DeleteAccount(key string) error

	Clear() error
	Count() (Counts, error)
}

// AccessHooks lets an external consumer serialize or reload around a logical
// cache operation. BeforeAccess runs before the first repository call of a
// request; AfterAccess runs exactly once after the last one, on every exit
// path, if and only if BeforeAccess ran.
type AccessHooks interface {
	BeforeAccess() error
	AfterAccess() error
}

// NopHooks is the default when no external store needs notifications.
type NopHooks struct{}

func (NopHooks) BeforeAccess() error { return nil }
func (NopHooks) AfterAccess() error  { return nil }
