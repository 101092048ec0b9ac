package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/cache"
)

func TestMemoryStoreUpsert(t *testing.T) {
	store := cache.NewMemoryStore()

	first := cache.NewAccessToken("uid.utid", "env", "realm", "client",
		1000, 4600, 90000, []string{"openid"}, "first", "Bearer")
	second := first
	second.Secret = "second"

	require.NoError(t, store.SaveAccessToken(first))
	require.NoError(t, store.SaveAccessToken(second))

	ats, err := store.AccessTokens()
	require.NoError(t, err)
	require.Len(t, ats, 1)
	assert.Equal(t, "second", ats[0].Secret)
}

func TestMemoryStoreUnmarshalAllocatesMissingMaps(t *testing.T) {
	store := cache.NewMemoryStore()
	require.NoError(t, store.Unmarshal([]byte(`{"Account":{}}`)))

	// Writes into map types the payload omitted must not panic.
	require.NoError(t, store.SaveRefreshToken(cache.NewRefreshToken("uid.utid", "env", "client", "secret", "", "")))

	counts, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, counts.RefreshTokens)
}

func TestMemoryStoreConcurrentWriters(t *testing.T) {
	store := cache.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			a := cache.NewAccount("uid.utid", "env", "realm", "oid", cache.AuthorityTypeAAD, "user@contoso.com")
			a.Realm = string(rune('a' + n))
			_ = store.SaveAccount(a)
		}(i)
	}
	wg.Wait()

	accounts, err := store.Accounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 10)
}
